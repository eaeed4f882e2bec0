package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SessionFile represents a session log file on disk.
type SessionFile struct {
	Path      string
	Name      string
	Size      int64
	ModTime   time.Time
	NumEvents int
}

// ListSessions finds .jsonl session log files in dir.
func ListSessions(dir string) ([]SessionFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading session directory: %w", err)
	}

	var files []SessionFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(e.Name(), "-session.jsonl") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(dir, e.Name())
		n, _ := countLines(path) //nolint:errcheck
		files = append(files, SessionFile{
			Path:      path,
			Name:      e.Name(),
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			NumEvents: n,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close() //nolint:errcheck
	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}

// ReadEvents parses all events from a session log file.
func ReadEvents(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening session file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	var events []Event
	scanner := bufio.NewScanner(f)
	// Increase buffer for large lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue // skip malformed lines
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	return events, nil
}

// RenderTimeline writes a human-readable session timeline to w.
//
//nolint:errcheck // display-only writes; errors are not actionable
func RenderTimeline(w io.Writer, events []Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}

	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintln(w, " SESSION TIMELINE")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintln(w)

	start := events[0].Timestamp
	for _, ev := range events {
		elapsed := ev.Timestamp.Sub(start)
		ts := formatDuration(elapsed)

		switch ev.Type {
		case EventSessionStart:
			command, _ := ev.Data["command"].(string) //nolint:errcheck
			apiURL, _ := ev.Data["api_url"].(string)  //nolint:errcheck
			fmt.Fprintf(w, "[%s] 🚀 Session started  command=%s  api=%s\n", ts, command, apiURL)

		case EventContestOpen:
			contest, _ := ev.Data["contest_id"].(string) //nolint:errcheck
			lang, _ := ev.Data["language"].(string)      //nolint:errcheck
			fmt.Fprintf(w, "[%s] 📋 Contest %s opened  language=%s  tasks=%d  solved=%d\n",
				ts, contest, lang, jsonNumber(ev.Data["task_count"]), jsonNumber(ev.Data["solved"]))

		case EventTaskEnter:
			title, _ := ev.Data["title"].(string)   //nolint:errcheck
			source, _ := ev.Data["source"].(string) //nolint:errcheck
			fmt.Fprintf(w, "[%s] ▶  Task %d/%d: %s  (%s)\n",
				ts, jsonNumber(ev.Data["task_num"]), jsonNumber(ev.Data["total_tasks"]), title, source)

		case EventExecutionStart:
			mode, _ := ev.Data["mode"].(string)       //nolint:errcheck
			id, _ := ev.Data["execution_id"].(string) //nolint:errcheck
			fmt.Fprintf(w, "[%s]    ⏳ %s started  execution=%s  tests=%d\n", ts, mode, id, jsonNumber(ev.Data["test_count"]))

		case EventExecutionComplete:
			mode, _ := ev.Data["mode"].(string)       //nolint:errcheck
			state, _ := ev.Data["state"].(string)     //nolint:errcheck
			verdict, _ := ev.Data["verdict"].(string) //nolint:errcheck
			icon := "✗"
			if verdict == "ACCEPTED" {
				icon = "✓"
			}
			fmt.Fprintf(w, "[%s]    %s %s %s  %s  %d/%d passed  (%d polls)\n",
				ts, icon, mode, state, verdict, jsonNumber(ev.Data["passed"]), jsonNumber(ev.Data["total"]), jsonNumber(ev.Data["attempts"]))

		case EventHintConsumed:
			tier, _ := ev.Data["tier"].(string) //nolint:errcheck
			fmt.Fprintf(w, "[%s]    💡 Hint %s  -%d  (penalty %d)\n",
				ts, tier, jsonNumber(ev.Data["weight"]), jsonNumber(ev.Data["penalty_total"]))

		case EventTaskSolved:
			task, _ := ev.Data["task_id"].(string)  //nolint:errcheck
			origin, _ := ev.Data["origin"].(string) //nolint:errcheck
			fmt.Fprintf(w, "[%s] ✓  Task solved: %s [%s]  %d/%d\n",
				ts, task, origin, jsonNumber(ev.Data["solved"]), jsonNumber(ev.Data["total"]))

		case EventContestComplete:
			signal, _ := ev.Data["signal"].(string) //nolint:errcheck
			fmt.Fprintf(w, "[%s] 🏆 Contest complete (%s)\n", ts, signal)

		case EventCommunicationAnswer:
			status, _ := ev.Data["status"].(string) //nolint:errcheck
			fmt.Fprintf(w, "[%s]    ✉  Answer sent  status=%s  chars=%d\n", ts, status, jsonNumber(ev.Data["answer_len"]))

		case EventError:
			msg, _ := ev.Data["message"].(string) //nolint:errcheck
			fmt.Fprintf(w, "[%s] ❌ Error: %s\n", ts, msg)

		case EventSessionEnd:
			fmt.Fprintf(w, "[%s] 🏁 Session complete  %d/%d solved  %d executions  (%dms)\n",
				ts, jsonNumber(ev.Data["solved"]), jsonNumber(ev.Data["total_tasks"]),
				jsonNumber(ev.Data["executions"]), jsonNumber(ev.Data["duration_ms"]))

		default:
			fmt.Fprintf(w, "[%s] %s %v\n", ts, ev.Type, ev.Data)
		}
	}
	fmt.Fprintln(w)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%6dms", d.Milliseconds())
	}
	return fmt.Sprintf("%6.1fs", d.Seconds())
}

// jsonNumber extracts a number from a JSON-decoded interface{} (float64 or json.Number).
func jsonNumber(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, _ := n.Int64() //nolint:errcheck
		return int(i)
	}
	return 0
}
