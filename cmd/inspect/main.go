package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/danielpatrickdp/markov/internal/chain"
	"github.com/danielpatrickdp/markov/internal/logging"
	"github.com/danielpatrickdp/markov/internal/persist"
	"github.com/danielpatrickdp/markov/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", os.Getenv("MARKOV_DB"), "path to the chain store")
	last := flag.Int("last", 20, "show N most recent chain versions")
	chainID := flag.String("chain", "", "show single chain version detail")
	name := flag.String("name", "", "show the active version of a named chain")
	top := flag.Int("top", 10, "rows shown in detail mode, most probable first")
	runs := flag.Int("runs", 5, "logged runs shown in detail mode")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/markov.db [--last N] [--chain id | --name name] [--top N] [--json]")
		os.Exit(2)
	}

	st, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	switch {
	case *name != "":
		rec, err := st.GetActive(*name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		err = runDetailMode(st, rec.ChainID, *top, *runs, *jsonOut)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case *chainID != "":
		if err := runDetailMode(st, *chainID, *top, *runs, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	default:
		if err := runListMode(st, *last, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	ChainID   string  `json:"chain_id"`
	Name      string  `json:"name"`
	Domain    string  `json:"domain"`
	Order     int     `json:"order"`
	Rows      int     `json:"rows"`
	Keys      int     `json:"keys"`
	Entropy   float64 `json:"mean_entropy_bits"`
	Active    bool    `json:"active"`
	CreatedAt string  `json:"created_at"`
}

func runListMode(st *store.Store, last int, jsonOut bool) error {
	records, err := st.ListChains(last)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "no chains found")
		return nil
	}
	active, err := st.ActiveNames()
	if err != nil {
		return err
	}

	// store returns DESC, reverse for chronological
	listRows := make([]listRow, len(records))
	for i, rec := range records {
		stats := parseStats(rec.StatsJSON)
		listRows[len(records)-1-i] = listRow{
			ChainID:   rec.ChainID,
			Name:      rec.Name,
			Domain:    rec.Domain,
			Order:     rec.Order,
			Rows:      rec.Rows,
			Keys:      stats.Keys,
			Entropy:   stats.MeanEntropy,
			Active:    active[rec.Name] == rec.ChainID,
			CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(listRows)
	}

	fmt.Printf("%-10s  %-14s  %-9s  %5s  %6s  %6s  %7s  %-6s  %s\n",
		"Chain", "Name", "Domain", "Order", "Keys", "Rows", "Entropy", "Active", "Time")
	fmt.Printf("%-10s+-%-14s+-%-9s+-%5s+-%6s+-%6s+-%7s+-%-6s+-%s\n",
		"----------", "--------------", "---------", "-----", "------", "------", "-------", "------", "--------------------")
	for _, r := range listRows {
		mark := ""
		if r.Active {
			mark = "*"
		}
		fmt.Printf("%-10s  %-14s  %-9s  %5d  %6d  %6d  %7.3f  %-6s  %s\n",
			shortID(r.ChainID), r.Name, r.Domain, r.Order, r.Keys, r.Rows, r.Entropy, mark, r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	ChainID   string        `json:"chain_id"`
	ParentID  string        `json:"parent_id"`
	Name      string        `json:"name"`
	Domain    string        `json:"domain"`
	Precision int           `json:"precision"`
	CreatedAt string        `json:"created_at"`
	Stats     chain.Stats   `json:"stats"`
	TopRows   []persist.Row `json:"top_rows"`
	Runs      []runSummary  `json:"runs,omitempty"`
}

type runSummary struct {
	ID       int64  `json:"id"`
	RandSeed int64  `json:"rand_seed"`
	Seed     string `json:"seed,omitempty"`
	Outputs  int    `json:"outputs"`
	First    string `json:"first,omitempty"`
}

func runDetailMode(st *store.Store, chainID string, top, runs int, jsonOut bool) error {
	rec, err := st.GetChain(chainID)
	if err != nil {
		return err
	}
	rows, err := st.LoadRows(chainID)
	if err != nil {
		return err
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Probability > rows[j].Probability })
	if len(rows) > top {
		rows = rows[:top]
	}

	out := detailOutput{
		ChainID:   rec.ChainID,
		ParentID:  rec.ParentID,
		Name:      rec.Name,
		Domain:    rec.Domain,
		Precision: rec.Precision,
		CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Stats:     parseStats(rec.StatsJSON),
		TopRows:   rows,
	}

	entries, err := logging.ListRuns(st.DB(), chainID, runs)
	if err != nil {
		return err
	}
	for _, e := range entries {
		_, outputs, err := e.Decode()
		if err != nil {
			return err
		}
		rs := runSummary{ID: e.ID, RandSeed: e.RandSeed, Seed: e.SeedText, Outputs: len(outputs)}
		if len(outputs) > 0 {
			rs.First = outputs[0]
		}
		out.Runs = append(out.Runs, rs)
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Chain:      %s\n", out.ChainID)
	fmt.Printf("Parent:     %s\n", out.ParentID)
	fmt.Printf("Name:       %s\n", out.Name)
	fmt.Printf("Domain:     %s (order %d, precision %d)\n", out.Domain, rec.Order, out.Precision)
	fmt.Printf("Created:    %s\n", out.CreatedAt)
	fmt.Printf("Keys:       %d (%d initial)\n", out.Stats.Keys, out.Stats.InitialKeys)
	fmt.Printf("Entropy:    mean %.4f, max %.4f bits\n", out.Stats.MeanEntropy, out.Stats.MaxEntropy)
	fmt.Printf("Row error:  %.2g\n", out.Stats.MaxRowError)

	fmt.Printf("\nTop transitions:\n")
	for _, r := range out.TopRows {
		fmt.Printf("  %-24q -> %-16q %.6f (%d)\n", r.Key, r.Next, r.Probability, r.Count)
	}

	if len(out.Runs) > 0 {
		fmt.Printf("\nRecent runs:\n")
		for _, r := range out.Runs {
			fmt.Printf("  #%-5d seed=%-8d outputs=%-3d %q\n", r.ID, r.RandSeed, r.Outputs, r.First)
		}
	}
	return nil
}

// #endregion detail-mode

// #region output

func parseStats(statsJSON string) chain.Stats {
	var s chain.Stats
	if statsJSON != "" {
		_ = json.Unmarshal([]byte(statsJSON), &s)
	}
	return s
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
