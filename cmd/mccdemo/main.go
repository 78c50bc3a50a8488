// Command mccdemo is a small line-oriented REPL exercising radix.Tree
// through the stringMultiMap wrapper, the external collaborator spec.md §1
// places outside the core engine's scope. It is example code, not a core
// component: production use of the radix tree does not require it.
//
//	add <key> <int>       add int to the value set at key
//	rm <key> <int>        remove int from the value set at key
//	has <key> <int>       report whether int is in the value set at key
//	size <key>            print the size of the value set at key
//	prefix <key>          print the size of the union of values at every key sharing prefix
//	del <key>             delete key entirely
//	count                 print the number of distinct keys
//	quit
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

func main() {
	mm := newStringMultiMap[int]()
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("mccdemo: radix-tree-backed multi-map. Type 'quit' to exit.")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			return

		case "add":
			if len(fields) != 3 {
				fmt.Println("usage: add <key> <int>")
				continue
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil {
				fmt.Println("not an int:", fields[2])
				continue
			}
			mm.AddValue(fields[1], n)

		case "rm":
			if len(fields) != 3 {
				fmt.Println("usage: rm <key> <int>")
				continue
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil {
				fmt.Println("not an int:", fields[2])
				continue
			}
			mm.RemoveValue(fields[1], n)

		case "has":
			if len(fields) != 3 {
				fmt.Println("usage: has <key> <int>")
				continue
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil {
				fmt.Println("not an int:", fields[2])
				continue
			}
			fmt.Println(mm.ValuesFor(fields[1]).Contains(n))

		case "size":
			if len(fields) != 2 {
				fmt.Println("usage: size <key>")
				continue
			}
			fmt.Println(mm.ValuesFor(fields[1]).Len())

		case "prefix":
			if len(fields) != 2 {
				fmt.Println("usage: prefix <key>")
				continue
			}
			fmt.Println(mm.ValuesWithPrefix(fields[1]).Len())

		case "del":
			if len(fields) != 2 {
				fmt.Println("usage: del <key>")
				continue
			}
			mm.DeleteKey(fields[1])

		case "count":
			fmt.Println(mm.NumberOfKeys())

		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}
