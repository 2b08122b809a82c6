/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/carverauto/vcsync/pkg/sync"
)

// renderSummary formats the result of one run as a per-source table
// followed by the NetBox write counts and the final status line.
func renderSummary(result *sync.Result, runErr error, st styles) string {
	var b strings.Builder

	if result != nil && len(result.Reports) > 0 {
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(st.border).
			Headers("SOURCE", "RUN ID", "CREATED", "UPDATED", "SKIPPED").
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return st.header
				}

				return st.cell
			})

		for _, report := range result.Reports {
			stats := report.Stats()
			t.Row(
				report.Source,
				report.RunID,
				strconv.Itoa(stats.Created),
				strconv.Itoa(stats.Updated),
				strconv.Itoa(stats.Skipped),
			)
		}

		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	if result != nil && result.Applied != nil {
		line := fmt.Sprintf("NetBox writes: %d created, %d updated, %d failed",
			result.Applied.Created, result.Applied.Updated, result.Applied.Failed)

		if result.Applied.Failed > 0 {
			line = st.warn.Render(line)
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	if result != nil && result.Published > 0 {
		b.WriteString(st.hint.Render(fmt.Sprintf("Events published: %d", result.Published)))
		b.WriteString("\n")
	}

	switch {
	case runErr != nil:
		b.WriteString(st.error.Render("Run finished with errors: " + runErr.Error()))
	case result != nil:
		elapsed := result.Finished.Sub(result.Started).Round(time.Millisecond)
		b.WriteString(st.success.Render("Run finished in " + elapsed.String()))
	}

	b.WriteString("\n")

	return b.String()
}
