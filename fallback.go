package dashfetch

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Recognized activity periods.
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

var (
	weekLabels  = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
)

type resourceClass int

const (
	resourceGeneric resourceClass = iota
	resourceActivity
	resourceCourse
)

// classifyResource decides the fallback shape from the URL. Matching is by
// path substring, mirroring the endpoints the dashboards call.
func classifyResource(u *url.URL, params map[string]string) resourceClass {
	path := strings.ToLower(u.Path)
	switch {
	case strings.Contains(path, "activity"), periodFor(u, params) != "":
		return resourceActivity
	case strings.Contains(path, "course"), strings.Contains(path, "progress"):
		return resourceCourse
	default:
		return resourceGeneric
	}
}

func periodFor(u *url.URL, params map[string]string) string {
	if p, ok := params["period"]; ok {
		return p
	}
	return u.Query().Get("period")
}

// synthesizeFallback builds a placeholder payload shaped like the live
// resource so downstream rendering is unaffected; only the fallback flag
// distinguishes it from genuine server data.
func synthesizeFallback(u *url.URL, params map[string]string, now time.Time) Payload {
	switch classifyResource(u, params) {
	case resourceActivity:
		labels := activityLabels(periodFor(u, params), now)
		return Payload{
			"labels":   labels,
			"data":     make([]int, len(labels)),
			"fallback": true,
			"message":  "Activity data is temporarily unavailable",
		}
	case resourceCourse:
		return Payload{
			"completed":  0,
			"inProgress": 0,
			"notStarted": 0,
			"notPassed":  0,
			"fallback":   true,
		}
	default:
		return Payload{
			"labels":   []string{},
			"data":     []int{},
			"fallback": true,
			"error":    "Service temporarily unavailable",
		}
	}
}

// activityLabels returns the label axis for an activity chart: a Monday
// week, the twelve month abbreviations, or day numbers up to today for the
// month (default) view.
func activityLabels(period string, now time.Time) []string {
	switch period {
	case PeriodWeek:
		labels := make([]string, len(weekLabels))
		copy(labels, weekLabels)
		return labels
	case PeriodYear:
		labels := make([]string, len(monthLabels))
		copy(labels, monthLabels)
		return labels
	default:
		day := now.Day()
		labels := make([]string, day)
		for i := 0; i < day; i++ {
			labels[i] = strconv.Itoa(i + 1)
		}
		return labels
	}
}
