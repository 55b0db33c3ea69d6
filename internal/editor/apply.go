package editor

import "strings"

// Apply parses blocksText as SEARCH/REPLACE blocks and applies them to
// content, returning the edited content and any WARNING-level tolerance
// names accumulated along the way.
func Apply(content, blocksText string) (edited string, warnings []string, err error) {
	blocks, err := ParseBlocks(blocksText)
	if err != nil {
		return "", nil, err
	}

	lines, warnings, err := editWithIndividualFallback(strings.Split(content, "\n"), blocks)
	if err != nil {
		return "", nil, err
	}
	return strings.Join(lines, "\n"), warnings, nil
}

// editWithIndividualFallback tries matching every block together; if the
// best joint plan still errors and there's more than one block, it falls
// back to applying each block one at a time against the running result —
// trading precision for robustness the same way the source material's
// edit_with_individual_fallback does.
func editWithIndividualFallback(original []string, blocks []Block) (edited []string, warnings []string, err error) {
	plans := EditFile(original, blocks)
	best, _ := BestMatches(plans)

	edited, warnings, err = best[0].ReplaceOrThrow(3)
	if err != nil {
		if len(blocks) > 1 {
			var allWarnings []string
			running := original
			for _, b := range blocks {
				var w []string
				running, w, err = editWithIndividualFallback(running, []Block{b})
				if err != nil {
					return nil, nil, err
				}
				allWarnings = append(allWarnings, w...)
			}
			return running, allWarnings, nil
		}
		return nil, nil, err
	}

	if len(best) > 1 {
		if block := identifyFirstDifferingBlock(best); block != nil {
			return nil, nil, &ErrMatch{Messages: []string{
				"The following block matched more than once:\n```\n" + strings.Join(block, "\n") +
					"\n```\nConsider adding more context before and after this block to make the match unique.",
			}}
		}
		return nil, nil, &ErrMatch{Messages: []string{
			"One of the blocks matched more than once\n\nConsider adding more context before and after all the blocks to make the match unique.",
		}}
	}

	return edited, warnings, nil
}

// identifyFirstDifferingBlock finds the first block position at which two
// or more tied-best plans disagree on which span they matched, and
// returns that block's search lines — the block the caller should add
// more context to.
func identifyFirstDifferingBlock(matches []Plan) []string {
	if len(matches) <= 1 {
		return nil
	}
	n := len(matches[0].Assignment)
	for _, m := range matches {
		if len(m.Assignment) != n {
			if len(matches[0].SearchBlocks) > 0 {
				return matches[0].SearchBlocks[0]
			}
			return nil
		}
	}
	for i := 0; i < n; i++ {
		first := matches[0].Assignment[i].span
		for _, m := range matches[1:] {
			if m.Assignment[i].span != first {
				if i < len(matches[0].SearchBlocks) {
					return matches[0].SearchBlocks[i]
				}
				return nil
			}
		}
	}
	return nil
}
