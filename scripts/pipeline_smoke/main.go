// Command pipeline_smoke exercises a running API instance end to end:
// login, upload a small sample dataset, trigger a synchronous pipeline
// run and fetch the report export. Exits non-zero on the first failure.
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
	"strings"
	"time"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type runResult struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Solver     string `json:"solver"`
	Difficulty string `json:"difficulty"`
	Accepted   bool   `json:"accepted"`
}

type step struct {
	Name     string
	Duration time.Duration
	Err      error
}

func main() {
	var (
		baseURL  string
		email    string
		password string
		timeout  time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&email, "email", "admin@example.com", "login email")
	flag.StringVar(&password, "password", "admin123", "login password")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP client timeout")
	flag.Parse()

	client := &http.Client{Timeout: timeout}
	base := strings.TrimRight(baseURL, "/")

	var steps []step
	fail := func(name string, start time.Time, err error) {
		steps = append(steps, step{Name: name, Duration: time.Since(start), Err: err})
		printReport(steps)
		os.Exit(1)
	}
	ok := func(name string, start time.Time) {
		steps = append(steps, step{Name: name, Duration: time.Since(start)})
	}

	start := time.Now()
	token, err := login(client, base, email, password)
	if err != nil {
		fail("login", start, err)
	}
	ok("login", start)

	start = time.Now()
	datasetID, err := uploadDataset(client, base, token)
	if err != nil {
		fail("upload dataset", start, err)
	}
	ok("upload dataset", start)

	start = time.Now()
	run, err := triggerRun(client, base, token, datasetID)
	if err != nil {
		fail("pipeline run", start, err)
	}
	ok("pipeline run", start)

	start = time.Now()
	if err := fetchExport(client, base, token, run.ID); err != nil {
		fail("export", start, err)
	}
	ok("export", start)

	printReport(steps)
	fmt.Printf("Run %s: status=%s solver=%q difficulty=%s accepted=%t\n",
		run.ID, run.Status, run.Solver, run.Difficulty, run.Accepted)
}

func login(client *http.Client, base, email, password string) (string, error) {
	payload := map[string]string{"email": email, "password": password}
	data, err := post(client, base+"/api/v1/auth/login", "", payload)
	if err != nil {
		return "", err
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("empty access token")
	}
	return resp.AccessToken, nil
}

func uploadDataset(client *http.Client, base, token string) (string, error) {
	data, err := post(client, base+"/api/v1/datasets", token, sampleDataset())
	if err != nil {
		return "", err
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode dataset response: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("empty dataset id")
	}
	return resp.ID, nil
}

func triggerRun(client *http.Client, base, token, datasetID string) (*runResult, error) {
	data, err := post(client, base+"/api/v1/pipeline/runs", token, map[string]interface{}{
		"datasetId": datasetID,
	})
	if err != nil {
		return nil, err
	}
	var run runResult
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode run response: %w", err)
	}
	if run.Status != "COMPLETED" {
		return &run, fmt.Errorf("run finished with status %s", run.Status)
	}
	return &run, nil
}

func fetchExport(client *http.Client, base, token, runID string) error {
	req, err := http.NewRequest(http.MethodGet, base+"/api/v1/pipeline/runs/"+runID+"/export?format=text", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("export returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func post(client *http.Client, url, token string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s returned %d: %s", url, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if env.Error != nil {
		return nil, fmt.Errorf("%s: %s (%s)", url, env.Error.Message, env.Error.Code)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s returned %d", url, resp.StatusCode)
	}
	return env.Data, nil
}

func sampleDataset() map[string]interface{} {
	slot := func(id, day, start, end string) map[string]string {
		return map[string]string{"timeslot_id": id, "day_of_week": day, "start_time": start, "end_time": end}
	}
	return map[string]interface{}{
		"institutionName": "Smoke Test Institute",
		"courses": []map[string]interface{}{
			{"course_id": "C1", "course_name": "Algorithms", "sessions_per_week": 2},
			{"course_id": "C2", "course_name": "Databases", "sessions_per_week": 2},
		},
		"faculty": []map[string]interface{}{
			{"faculty_id": "F1", "faculty_name": "Dr. Rao", "competences": []string{"C1"}},
			{"faculty_id": "F2", "faculty_name": "Dr. Iyer", "competences": []string{"C2"}},
		},
		"rooms": []map[string]interface{}{
			{"room_id": "R1", "room_name": "Hall A", "capacity": 60},
			{"room_id": "R2", "room_name": "Hall B", "capacity": 60},
		},
		"timeSlots": []interface{}{
			slot("T1", "MONDAY", "09:00", "10:00"),
			slot("T2", "MONDAY", "10:00", "11:00"),
			slot("T3", "TUESDAY", "09:00", "10:00"),
			slot("T4", "TUESDAY", "10:00", "11:00"),
		},
		"batches": []map[string]interface{}{
			{"batch_id": "B1", "batch_name": "Sem 1", "student_count": 40},
		},
	}
}

func printReport(steps []step) {
	fmt.Println("Pipeline Smoke Report")
	fmt.Println("=====================")
	for _, s := range steps {
		status := "OK"
		if s.Err != nil {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s (%s)\n", status, s.Name, s.Duration)
		if s.Err != nil {
			log.Printf("  error: %v", s.Err)
		}
	}
}
