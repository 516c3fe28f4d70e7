// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package main provides an interactive REPL for exploring a SNZI tree.
//
// This command-line tool lets you construct a tree of a chosen contention
// variant and shape, then drive Arrive/Depart/Query by hand to see how the
// root counter and contention status respond. It's useful for learning the
// protocol and for reproducing a specific interleaving by typing it out.
//
// # Usage
//
//	go run cmd/repl/main.go
//
// Available commands:
//
//	new <variant> <K> <H> <T>   - construct a tree (variant: no, semi, full)
//	arrive <tid>                - call Arrive(tid) on the current tree
//	depart <tid>                - call Depart(tid) on the current tree
//	query                       - call Query() on the current tree
//	stats                       - print node/leaf counts, Query, and each tid's contention status (full variant)
//	quit, exit                  - exit the REPL
//
// Example session:
//
//	> new semi 2 1 4
//	OK: tree with 3 nodes, 2 leaves, 2 threads/leaf
//	> arrive 0
//	OK
//	> query
//	true
//	> depart 0
//	OK
//	> query
//	false
//
// # Limitations
//
//   - Single-threaded: commands run sequentially, so this REPL cannot
//     demonstrate the race conditions the contention-handling variants
//     exist to resolve. Use cmd/bench for concurrent measurement.
//   - The full-contention variant keeps one ContentionStatus per tid,
//     reused across arrive/depart commands on that tid.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/kianostad/snzi/internal/core"
)

// REPL holds the current tree and, for the full-contention variant, one
// ContentionStatus per caller identifier seen so far.
type REPL struct {
	tree     *core.Tree
	variant  string
	statuses map[int]*core.ContentionStatus
}

// NewREPL returns an empty REPL with no tree constructed yet.
func NewREPL() *REPL {
	return &REPL{statuses: make(map[int]*core.ContentionStatus)}
}

func (r *REPL) Run() {
	fmt.Println("SNZI REPL")
	fmt.Println("Commands: new <variant> <K> <H> <T>, arrive <tid>, depart <tid>, query, stats, quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "new":
			r.cmdNew(args)

		case "arrive":
			r.cmdArrive(args)

		case "depart":
			r.cmdDepart(args)

		case "query":
			if !r.requireTree() {
				continue
			}
			fmt.Println(r.tree.Query())

		case "stats":
			r.cmdStats()

		case "quit", "exit":
			fmt.Println("Goodbye!")
			return

		default:
			fmt.Printf("Unknown command: %s\n", cmd)
		}
	}
}

func (r *REPL) requireTree() bool {
	if r.tree == nil {
		fmt.Println("No tree constructed. Use: new <variant> <K> <H> <T>")
		return false
	}
	return true
}

func (r *REPL) cmdNew(args []string) {
	if len(args) != 4 {
		fmt.Println("Usage: new <variant> <K> <H> <T>")
		return
	}

	variant, err := parseVariant(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}

	k, err1 := strconv.Atoi(args[1])
	h, err2 := strconv.Atoi(args[2])
	t, err3 := strconv.Atoi(args[3])
	if err1 != nil || err2 != nil || err3 != nil {
		fmt.Println("K, H and T must be integers")
		return
	}

	tree, err := core.NewTree(k, h, t, variant)
	if err != nil {
		fmt.Println(err)
		return
	}

	r.tree = tree
	r.variant = args[0]
	r.statuses = make(map[int]*core.ContentionStatus)
	fmt.Printf("OK: tree with %d nodes, %d leaves, %d threads/leaf\n",
		tree.NodesCount(), tree.LeavesCount(), tree.ThreadsPerLeaf())
}

func (r *REPL) cmdArrive(args []string) {
	if !r.requireTree() {
		return
	}
	tid, err := parseTid(args)
	if err != nil {
		fmt.Println(err)
		return
	}

	if r.variant == "full" {
		r.tree.ArriveFull(tid, r.statusFor(tid))
	} else {
		r.tree.Arrive(tid)
	}
	fmt.Println("OK")
}

func (r *REPL) cmdDepart(args []string) {
	if !r.requireTree() {
		return
	}
	tid, err := parseTid(args)
	if err != nil {
		fmt.Println(err)
		return
	}

	if r.variant == "full" {
		r.tree.DepartFull(tid, r.statusFor(tid))
	} else {
		r.tree.Depart(tid)
	}
	fmt.Println("OK")
}

func (r *REPL) cmdStats() {
	if !r.requireTree() {
		return
	}
	fmt.Printf("nodes=%d leaves=%d threadsPerLeaf=%d query=%v\n",
		r.tree.NodesCount(), r.tree.LeavesCount(), r.tree.ThreadsPerLeaf(), r.tree.Query())

	if r.variant == "full" {
		for tid, cs := range r.statuses {
			fmt.Printf("  tid=%d useSNZIInArrive=%v useSNZIInDepart=%v\n",
				tid, cs.UseSNZIInArrive, cs.UseSNZIInDepart)
		}
	}
}

func (r *REPL) statusFor(tid int) *core.ContentionStatus {
	cs, ok := r.statuses[tid]
	if !ok {
		cs = core.NewContentionStatus()
		r.statuses[tid] = cs
	}
	return cs
}

func parseVariant(s string) (core.Variant, error) {
	switch s {
	case "no":
		return core.NoContention, nil
	case "semi":
		return core.SemiContention, nil
	case "full":
		return core.FullContention, nil
	default:
		return 0, fmt.Errorf("unknown variant %q: want no, semi, or full", s)
	}
}

func parseTid(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: arrive/depart <tid>")
	}
	return strconv.Atoi(args[0])
}

func main() {
	_ = flag.Bool("quiet", false, "Run in quiet mode")
	flag.Parse()

	repl := NewREPL()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived shutdown signal.")
		os.Exit(0)
	}()

	repl.Run()
}
