package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tanq16/gdfetch/internal/utils"
)

type TaskOutput struct {
	ID        string
	URL       string
	Label     string
	Status    string
	Message   string
	Path      string
	Partial   string
	Err       *utils.DownloadError
	StartTime time.Time
	EndTime   time.Time
	Index     int
}

// Manager prints one line per finished task and a grouped summary at the end.
// Workers call Started and Finished concurrently.
type Manager struct {
	mutex     sync.Mutex
	out       io.Writer
	width     int
	outputs   map[string]*TaskOutput
	skipped   []*TaskOutput
	taskCount int
	outputDir string
}

func NewManager(out io.Writer, outputDir string) *Manager {
	return &Manager{
		out:       out,
		width:     getTerminalWidth(),
		outputs:   make(map[string]*TaskOutput),
		outputDir: outputDir,
	}
}

func (m *Manager) Started(task utils.DownloadTask) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.taskCount++
	m.outputs[task.ID] = &TaskOutput{
		ID:        task.ID,
		URL:       task.OriginalURL,
		Label:     task.Kind.Label(),
		Status:    "pending",
		StartTime: time.Now(),
		Index:     m.taskCount,
	}
}

func (m *Manager) Finished(result utils.DownloadResult) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	info, exists := m.outputs[result.TaskID]
	if !exists {
		m.taskCount++
		info = &TaskOutput{ID: result.TaskID, URL: result.OriginalURL, StartTime: time.Now(), Index: m.taskCount}
		m.outputs[result.TaskID] = info
	}
	info.EndTime = time.Now()
	info.Message = result.Message
	info.Path = result.FilePath
	info.Partial = result.PartialPath
	info.Err = result.Err
	if result.Success {
		info.Status = "success"
	} else {
		info.Status = "error"
	}
	m.printLine(info)
}

// RecordSkipped notes a link that never became a task.
func (m *Manager) RecordSkipped(url string, err *utils.DownloadError) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	info := &TaskOutput{URL: url, Status: "skipped", Err: err}
	if err != nil {
		info.Message = err.Error()
	}
	m.skipped = append(m.skipped, info)
}

func (m *Manager) GetStatusIndicator(status string) string {
	switch status {
	case "success":
		return successStyle.Render(StyleSymbols["pass"])
	case "error":
		return errorStyle.Render(StyleSymbols["fail"])
	case "skipped":
		return warningStyle.Render(StyleSymbols["skip"])
	case "pending":
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}

func (m *Manager) printLine(info *TaskOutput) {
	elapsed := info.EndTime.Sub(info.StartTime).Round(time.Millisecond).String()
	var styledMessage string
	switch info.Status {
	case "success":
		styledMessage = successStyle.Render(info.Message)
	case "error":
		styledMessage = errorStyle.Render(info.Message)
	default:
		styledMessage = pendingStyle.Render(info.Message)
	}
	fmt.Fprintf(m.out, "%s%s %s %s\n", strings.Repeat(" ", 2), m.GetStatusIndicator(info.Status), debugStyle.Render(elapsed), styledMessage)
	if info.Status == "error" {
		source := info.URL
		if info.Label != "" {
			source = info.Label + " " + StyleSymbols["arrow"] + " " + info.URL
		}
		for _, line := range wrapText(source, 6, m.width) {
			fmt.Fprintf(m.out, "%s%s\n", strings.Repeat(" ", 6), debugStyle.Render(line))
		}
	}
}

func (m *Manager) sorted() []*TaskOutput {
	all := make([]*TaskOutput, 0, len(m.outputs))
	for _, info := range m.outputs {
		all = append(all, info)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Index < all[j].Index
	})
	return all
}

var categoryTitles = []struct {
	category utils.Category
	title    string
}{
	{utils.CategorySkipped, "Skipped (not downloadable)"},
	{utils.CategoryRetry, "Worth retrying"},
	{utils.CategoryAttention, "Needs attention"},
}

// ShowSummary prints totals, failures grouped by category, partial files left
// on disk and where the downloads went.
func (m *Manager) ShowSummary() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	tasks := m.sorted()
	var success, failures int
	grouped := map[utils.Category][]*TaskOutput{}
	var partials []string
	for _, info := range tasks {
		switch info.Status {
		case "success":
			success++
		case "error":
			failures++
			category := utils.CategoryAttention
			if info.Err != nil {
				category = info.Err.Kind.Category()
			}
			grouped[category] = append(grouped[category], info)
			if info.Partial != "" {
				partials = append(partials, info.Partial)
			}
		}
	}
	grouped[utils.CategorySkipped] = append(grouped[utils.CategorySkipped], m.skipped...)

	indent := strings.Repeat(" ", 2)
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, indent+success2Style.Render(fmt.Sprintf("Completed %d of %d", success, len(tasks))))
	if failures > 0 {
		fmt.Fprintln(m.out, indent+errorStyle.Render(fmt.Sprintf("Failed %d of %d", failures, len(tasks))))
	}
	if len(m.skipped) > 0 {
		fmt.Fprintln(m.out, indent+warningStyle.Render(fmt.Sprintf("Skipped %d link(s)", len(m.skipped))))
	}

	for _, group := range categoryTitles {
		entries := grouped[group.category]
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintln(m.out)
		fmt.Fprintln(m.out, indent+headerStyle.Render(group.title+":"))
		for i, info := range entries {
			tag := "unknown"
			if info.Err != nil {
				tag = string(info.Err.Kind)
				if info.Err.Reason != utils.ReasonNone {
					tag += "/" + string(info.Err.Reason)
				}
			}
			fmt.Fprintf(m.out, "%s%s %s %s\n", strings.Repeat(" ", 4),
				errorStyle.Render(fmt.Sprintf("%d.", i+1)), detailStyle.Render("["+tag+"]"), info.URL)
			if info.Err != nil && info.Err.Msg != "" {
				for _, line := range wrapText(info.Err.Msg, 6, m.width) {
					fmt.Fprintf(m.out, "%s%s\n", strings.Repeat(" ", 6), debugStyle.Render(line))
				}
			}
		}
	}

	if len(partials) > 0 {
		fmt.Fprintln(m.out)
		fmt.Fprintln(m.out, indent+warningStyle.Render("Partial files left on disk:"))
		for _, path := range partials {
			fmt.Fprintf(m.out, "%s%s %s\n", strings.Repeat(" ", 4), StyleSymbols["arrow"], path)
		}
	}
	if m.outputDir != "" && success > 0 {
		fmt.Fprintln(m.out)
		fmt.Fprintln(m.out, indent+infoStyle.Render("Files saved to "+m.outputDir))
	}
	fmt.Fprintln(m.out)
}
