// Command shadow_compare replays read endpoints against the legacy community
// server and this API side by side, reporting status and body drift. Used
// during the migration to prove response parity before switching traffic.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

type probe struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type probeFile struct {
	Probes []probe `json:"probes"`
}

type result struct {
	Probe         probe
	NewStatus     int
	LegacyStatus  int
	StatusMatch   bool
	BodyMatch     bool
	Err           error
	NewLatency    time.Duration
	LegacyLatency time.Duration
}

func main() {
	var (
		newBase    string
		legacyBase string
		probesPath string
		token      string
		timeout    time.Duration
	)

	flag.StringVar(&newBase, "new-base", "http://localhost:8080", "community API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:5000", "legacy server base URL")
	flag.StringVar(&probesPath, "probes", filepath.Join("scripts", "shadow_compare", "probes.json"), "path to JSON probes file")
	flag.StringVar(&token, "token", "", "bearer token forwarded to both servers")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	probes, err := loadProbes(probesPath)
	if err != nil {
		log.Fatalf("load probes: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var results []result
	breaking := 0
	drifted := 0

	for _, p := range probes {
		res := compare(client, newBase, legacyBase, token, p)
		if res.Err != nil || !res.StatusMatch || !res.BodyMatch {
			if p.Critical {
				breaking++
			} else if res.Err == nil {
				drifted++
			}
		}
		results = append(results, res)
	}

	report(results)
	fmt.Printf("Breaking diffs: %d, optional diffs: %d\n", breaking, drifted)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadProbes(path string) ([]probe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file probeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Probes) == 0 {
		return nil, fmt.Errorf("no probes defined in %s", path)
	}
	return file.Probes, nil
}

func compare(client *http.Client, newBase, legacyBase, token string, p probe) result {
	res := result{Probe: p}

	newStatus, newBody, newLatency, err := fetch(client, newBase, token, p)
	if err != nil {
		res.Err = fmt.Errorf("new request failed: %w", err)
		return res
	}
	legacyStatus, legacyBody, legacyLatency, err := fetch(client, legacyBase, token, p)
	if err != nil {
		res.Err = fmt.Errorf("legacy request failed: %w", err)
		return res
	}

	res.NewStatus = newStatus
	res.LegacyStatus = legacyStatus
	res.NewLatency = newLatency
	res.LegacyLatency = legacyLatency
	res.StatusMatch = newStatus == legacyStatus
	res.BodyMatch = bodiesEqual(newBody, legacyBody)
	return res
}

func fetch(client *http.Client, base, token string, p probe) (int, []byte, time.Duration, error) {
	method := strings.ToUpper(strings.TrimSpace(p.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := p.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return 0, nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, 0, err
	}
	return resp.StatusCode, body, time.Since(start), nil
}

// bodiesEqual falls back to normalized JSON comparison so formatting and
// integer-vs-float encoding differences between the servers do not count
// as drift.
func bodiesEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	normalize(&aj)
	normalize(&bj)
	return reflect.DeepEqual(aj, bj)
}

func normalize(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k, v2 := range val {
			normalize(&v2)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2)
			val[i] = v2
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func report(results []result) {
	fmt.Println("Shadow Compare Report")
	fmt.Println("=====================")
	for _, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Probe.Method, res.Probe.Path)
		if res.Err != nil {
			fmt.Printf("  error: %v\n", res.Err)
			continue
		}
		fmt.Printf("  new: %d (%s) legacy: %d (%s)\n", res.NewStatus, res.NewLatency, res.LegacyStatus, res.LegacyLatency)
		fmt.Printf("  status match: %t | body match: %t | critical: %t\n", res.StatusMatch, res.BodyMatch, res.Probe.Critical)
	}
}
