// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/passmith/services/engine/rules"
	"github.com/AleutianAI/passmith/services/game"
)

// runRulesList deals a game and prints its full gauntlet in surface
// order, parameters bound.
func runRulesList(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputConfig()

	logger := newLogger("passmith")
	defer logger.Close()

	var opts []game.Option
	if runSeed != 0 {
		opts = append(opts, game.WithSeed(runSeed))
	}
	if vt := loadVideoTable(logger); vt != nil {
		opts = append(opts, game.WithVideoTable(vt))
	}
	g := game.New(logger.With("component", "game"), opts...)

	texts := game.CatalogueTexts(g.Deal())
	kinds := rules.Catalogue()
	list := RulesListResult{Count: len(kinds)}
	for i, k := range kinds {
		list.Rules = append(list.Rules, RuleInfo{
			Number: k.Number(),
			Slug:   k.Slug(),
			Text:   texts[i],
		})
	}

	if !out.JSON && !out.Quiet {
		for _, r := range list.Rules {
			fmt.Printf("%2d. %-18s %s\n", r.Number, r.Slug, r.Text)
		}
	}
	os.Exit(OutputResult(out, "rules list", start, list, false, nil))
}

// runRulesParse feeds rule texts through the parser, one per line, and
// reports what was recognized. Reads the file argument or stdin.
func runRulesParse(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputConfig()

	in := os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			os.Exit(OutputResult(out, "rules parse", start, nil, false, err))
		}
		defer f.Close()
		in = f
	}

	result, err := parseRuleTexts(in)
	if err != nil {
		os.Exit(OutputResult(out, "rules parse", start, nil, false, err))
	}

	if !out.JSON && !out.Quiet {
		for _, r := range result.Rules {
			if r.Error != "" {
				fmt.Printf("?   %s\n    %s\n", r.Input, r.Error)
				continue
			}
			fmt.Printf("%2d  %-18s %s\n", r.Number, r.Slug, r.Input)
		}
		fmt.Printf("\n%d recognized, %d failed\n", result.Recognized, result.Failed)
	}
	os.Exit(OutputResult(out, "rules parse", start, result, result.Failed > 0, nil))
}

// parseRuleTexts runs every non-empty line through the rule parser.
func parseRuleTexts(in io.Reader) (RulesParseResult, error) {
	result := RulesParseResult{}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parsed := ParsedRule{Input: line}
		r, err := rules.Parse(line)
		if err != nil {
			parsed.Error = err.Error()
			result.Failed++
		} else {
			parsed.Number = r.Number()
			parsed.Slug = r.Kind.Slug()
			result.Recognized++
		}
		result.Rules = append(result.Rules, parsed)
	}
	if err := scanner.Err(); err != nil {
		return result, err
	}
	return result, nil
}
