package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// how to interpret results, and key thresholds.

func describeSummary() string {
	return `Summarizes the indexed git history of the repository.

USE WHEN:
- Getting oriented in an unfamiliar repository
- Checking which date range and how much history the other tools see
- Finding the most active authors and the largest files

INTERPRETING RESULTS:
- num_revisions counts commits within the configured date range
- file_revisions describes how often files change: a P90 far above the
  median means a few files absorb most of the change
- last_changed_files shows where work is happening right now

METRICS RETURNED:
- num_revisions, first_commit, last_commit
- num_code_lines, num_files, num_modules
- top_authors, last_changed_files, top_code_files
- file_revisions: mean, std_dev, median, p90, max`
}

func describeHotspots() string {
	return `Ranks files or modules by how often they changed, with their current size.

USE WHEN:
- Prioritizing refactoring: large files that change often are where effort pays off
- Reviewing where defects are likely to concentrate
- Comparing churn between modules

INTERPRETING RESULTS:
- num_revisions: commits touching the entity in the active date range
- num_authors: distinct authors after alias normalization
- High revisions with many code lines: prime refactoring candidate
- High revisions with many authors: coordination hotspot
- avg_indent_levels > 2: deeply nested code, a complexity proxy

METRICS RETURNED:
- name, num_revisions, num_authors
- num_code_lines, num_comment_lines, num_blank_lines
- total_indent_levels, avg_indent_levels`
}

func describeChangeCoupling() string {
	return `Finds files or modules that change in the same commits.

USE WHEN:
- Discovering hidden dependencies not visible in imports
- Checking whether a module boundary holds: modules that always change together
  are one module in practice
- Listing what else usually needs editing when touching a file (use "for")

INTERPRETING RESULTS:
- coupled_revisions: commits touching both sides
- coupling_ratio = coupled / average of both sides' revisions, between 0 and 1
- Ratio > 0.5 with coupled_revisions >= 10: strong logical coupling
- Test and implementation pairs are expected; cross-module pairs deserve a look

METRICS RETURNED:
- left_name, right_name, coupled_revisions
- num_left_revisions, num_right_revisions, coupling_ratio`
}

func describeSumOfCouplings() string {
	return `Ranks files or modules by the total number of co-changes with all partners.

USE WHEN:
- Finding architectural hubs that many changes ripple through
- Spotting god files that participate in most commits

INTERPRETING RESULTS:
- sum_of_couplings adds coupled revisions over every partner
- A high sum with few revisions means the entity changes in large commits
- Entities with 0 never changed alongside another entity

METRICS RETURNED:
- name, sum_of_couplings`
}

func describeMainDeveloper() string {
	return `Names the author who added the most net lines to each file or module.

USE WHEN:
- Finding the right reviewer or expert for an area
- Assessing knowledge concentration and bus factor
- Planning handovers

INTERPRETING RESULTS:
- net_added_lines: the main developer's lines added minus removed, per commit floored at 0
- share = net_added_lines / total_net_added_lines
- Share > 0.8: knowledge is concentrated in one person
- Results are ordered by share, highest first

METRICS RETURNED:
- name, main_developer, net_added_lines, total_net_added_lines`
}

func describeCommitSpread() string {
	return `Counts each author's commits per module.

USE WHEN:
- Seeing which teams or people work on which modules
- Finding modules touched by many authors, which need clear ownership

INTERPRETING RESULTS:
- Ordered by module, then by commit count
- One dominant author: clear owner, possible bus factor risk
- Many authors with few commits each: diffuse ownership

METRICS RETURNED:
- module_name, author, num_revisions`
}

func describeFileHistory() string {
	return `Returns the per-commit metrics of one file, oldest first.

USE WHEN:
- Following how a hotspot grew over time
- Checking when a file's size or nesting jumped

INTERPRETING RESULTS:
- Each row is one commit that changed the file
- added_lines and removed_lines are relative to the commit's parent

METRICS RETURNED:
- revision, date, num_code_lines, num_comment_lines, num_blank_lines
- total_indent_levels, avg_indent_levels, std_indent_level
- added_lines, removed_lines`
}

func describeTree() string {
	return `Returns hotspots, change couplings or main developers as a directory tree.

USE WHEN:
- Visualizing where in the directory structure change concentrates
- Drawing treemaps or circle packings of the repository

INTERPRETING RESULTS:
- Nodes are of type Tree (directory) or Leaf (file or module)
- hotspot leaves: size = code lines, revision_weight and author_weight are
  relative to the most changed and most authored entry (0 to 1)
- coupling leaves: couplings lists partners passing min_revisions and min_ratio;
  leaves without partners are pruned
- main_developer leaves: size = code lines, main_developer name

METRICS RETURNED:
- Nested type, name, children plus the per-kind leaf fields`
}

func describeSetDateRange() string {
	return `Restricts all analytics to commits within a date range and persists it.

USE WHEN:
- Focusing on recent activity, e.g. the last quarter
- Comparing periods before and after a reorganization

INTERPRETING RESULTS:
- Dates are unix seconds, both bounds inclusive
- Omitting a bound leaves that end open; omitting both clears the range

METRICS RETURNED:
- The stored min_date and max_date`
}

func describeReload() string {
	return `Rebuilds the analytics after rule files (ignore.txt, modules.txt, authors.txt) changed.

USE WHEN:
- After editing module definitions or author aliases
- After an external indexing run

INTERPRETING RESULTS:
- reloaded is false when nothing changed since the last build, unless force is set

METRICS RETURNED:
- reloaded`
}

func describeReindex() string {
	return `Re-mines the full git history of the repository and reloads the analytics.

USE WHEN:
- New commits were made since the last index
- The index is suspected to be stale

INTERPRETING RESULTS:
- Runs over the whole history and can take minutes on large repositories
- The previous index stays in use until the new one is complete

METRICS RETURNED:
- commits, entries, elapsed`
}
