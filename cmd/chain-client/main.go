package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danielpatrickdp/markov/internal/chainrpc"
)

// #region main
func main() {
	addr := envOr("MARKOV_ADDR", "localhost:50061")

	client, err := chainrpc.NewClient(addr)
	if err != nil {
		log.Fatalf("failed to connect to chain server at %s: %v", addr, err)
	}
	defer client.Close()

	fmt.Println("Chain client ready.")
	fmt.Printf("  Server: %s\n", addr)
	fmt.Println("Commands: 'gen [n] [rand-seed]', 'seed <key>', 'next <key>', 'quit'")

	scanner := bufio.NewScanner(os.Stdin)
	var seed string
	turn := 0

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "seed":
			seed = arg
			fmt.Printf("seed set to %q\n", seed)
		case "next":
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			ts, err := client.Probabilities(ctx, arg)
			cancel()
			if err != nil {
				log.Printf("probabilities error: %v", err)
				continue
			}
			if len(ts) == 0 {
				fmt.Println("(no transitions)")
			}
			for _, t := range ts {
				fmt.Printf("  %-20q %.6f\n", t.Next, t.P)
			}
		case "gen":
			turn++
			p, err := parseGen(arg, int64(turn))
			if err != nil {
				log.Printf("gen: %v", err)
				continue
			}
			p.Seed = seed
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			outs, err := client.Produce(ctx, p)
			cancel()
			if err != nil {
				log.Printf("produce error: %v", err)
				continue
			}
			fmt.Println()
			for _, o := range outs {
				fmt.Println(o.Text)
			}
			fmt.Printf("\n[gen-%d] sequences=%d rand_seed=%d\n", turn, len(outs), p.RandSeed)
			seed = ""
		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
	}
}
// #endregion main

// #region helpers
// parseGen reads "[n] [rand-seed]". The turn number stands in for a missing
// rand seed so repeated commands vary.
func parseGen(arg string, turn int64) (chainrpc.ProduceParams, error) {
	p := chainrpc.ProduceParams{RandSeed: turn}
	fields := strings.Fields(arg)
	if len(fields) > 0 {
		n, err := strconv.Atoi(fields[0])
		if err != nil || n < 1 {
			return p, fmt.Errorf("bad count %q", fields[0])
		}
		p.Num = n
	}
	if len(fields) > 1 {
		s, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return p, fmt.Errorf("bad rand seed %q", fields[1])
		}
		p.RandSeed = s
	}
	return p, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
// #endregion helpers
