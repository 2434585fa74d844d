package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/opengsq/opengsq-go/internal/scan"
	"github.com/opengsq/opengsq-go/pkg/a2s"
)

func printJSON(results []scan.Result) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func printTables(kind string, results []scan.Result) error {
	switch kind {
	case "players":
		printPlayers(results)
	case "rules":
		printRules(results)
	default:
		printInfo(results)
	}
	return nil
}

func printInfo(results []scan.Result) {
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Server", "Country", "Name", "Map", "Game", "Players", "Bots", "VAC", "Version", "Ping"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, res := range results {
		if res.Err != nil {
			tw.Append([]string{res.Target, res.Country, "ERROR: " + res.Error, "", "", "", "", "", "", ""})
			continue
		}

		row := infoRow(res.Info)
		tw.Append(append([]string{res.Target, res.Country}, append(row, res.Latency.Round(time.Millisecond).String())...))
	}

	tw.Render()
}

func infoRow(info *a2s.InfoResponse) []string {
	if gs := info.GoldSrc; gs != nil {
		return []string{
			gs.Name, gs.Map, gs.Game,
			fmt.Sprintf("%d/%d", gs.Players, gs.MaxPlayers),
			fmt.Sprintf("%d", gs.Bots),
			boolMark(gs.VAC),
			"", // GoldSrc replies carry no version string
		}
	}

	src := info.Source
	return []string{
		src.Name, src.Map, src.Game,
		fmt.Sprintf("%d/%d", src.Players, src.MaxPlayers),
		fmt.Sprintf("%d", src.Bots),
		boolMark(src.VAC),
		src.Version,
	}
}

func printPlayers(results []scan.Result) {
	for _, res := range results {
		fmt.Printf("\n%s\n", res.Target)
		if res.Err != nil {
			fmt.Printf("  ERROR: %s\n", res.Error)
			continue
		}

		tw := tablewriter.NewWriter(os.Stdout)
		tw.SetHeader([]string{"#", "Name", "Score", "Duration"})
		tw.SetBorder(true)
		tw.SetAutoWrapText(false)

		for _, p := range res.Players {
			dur := time.Duration(float64(p.Duration) * float64(time.Second))
			tw.Append([]string{
				fmt.Sprintf("%d", p.Index),
				p.Name,
				fmt.Sprintf("%d", p.Score),
				dur.Round(time.Second).String(),
			})
		}

		tw.Render()
	}
}

func printRules(results []scan.Result) {
	for _, res := range results {
		fmt.Printf("\n%s\n", res.Target)
		if res.Err != nil {
			fmt.Printf("  ERROR: %s\n", res.Error)
			continue
		}

		names := make([]string, 0, len(res.Rules))
		for name := range res.Rules {
			names = append(names, name)
		}
		sort.Strings(names)

		tw := tablewriter.NewWriter(os.Stdout)
		tw.SetHeader([]string{"Rule", "Value"})
		tw.SetBorder(true)
		tw.SetAutoWrapText(false)

		for _, name := range names {
			tw.Append([]string{name, res.Rules[name]})
		}

		tw.Render()
	}
}

func boolMark(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
