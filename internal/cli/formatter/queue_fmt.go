package formatter

import (
	"fmt"
	"strings"

	"github.com/mfallon/taskdesk/internal/repository"
)

// FormatQueueCounts renders the sync-health summary.
func FormatQueueCounts(counts repository.QueueCounts) string {
	var b strings.Builder
	b.WriteString(Header("Offline queue"))
	b.WriteString("\n")
	b.WriteString(RenderTable(
		[]string{"STATE", "OPERATIONS"},
		[][]string{
			{"pending", fmt.Sprintf("%d", counts.Pending)},
			{"processing", fmt.Sprintf("%d", counts.Processing)},
			{"failed", QueueCount(counts.Failed)},
		},
	))
	return b.String()
}
