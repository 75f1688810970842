package dashfetch

import "testing"

func TestRequestKeyNoParams(t *testing.T) {
	url := "https://lms.example.com/api/activity-data"

	if key := RequestKey(url, nil); key != url {
		t.Errorf("Expected bare URL for nil params, got %q", key)
	}
	if key := RequestKey(url, map[string]string{}); key != url {
		t.Errorf("Expected bare URL for empty params, got %q", key)
	}
}

func TestRequestKeyCanonicalOrder(t *testing.T) {
	url := "https://lms.example.com/api/activity-data"
	a := RequestKey(url, map[string]string{"period": "week", "user": "7"})
	b := RequestKey(url, map[string]string{"user": "7", "period": "week"})

	if a != b {
		t.Errorf("Expected canonical serialization, got %q vs %q", a, b)
	}
	if a != url+"?period=week&user=7" {
		t.Errorf("Unexpected key layout: %q", a)
	}
}

func TestRequestKeyDistinguishesValues(t *testing.T) {
	url := "https://lms.example.com/api/activity-data"
	a := RequestKey(url, map[string]string{"period": "week"})
	b := RequestKey(url, map[string]string{"period": "year"})

	if a == b {
		t.Error("Expected different keys for different param values")
	}
}

func TestRequestKeyEncodesValues(t *testing.T) {
	key := RequestKey("https://lms.example.com/api/search", map[string]string{"q": "a b&c"})

	if key != "https://lms.example.com/api/search?q=a+b%26c" {
		t.Errorf("Expected query-encoded value, got %q", key)
	}
}
