package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Token is optional: the monitor runs open unless DASHBOARD_JWT_SECRET is
// set on the server side.
var viewerToken = os.Getenv("MONITOR_TOKEN")

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if viewerToken != "" {
		req.Header.Set("Authorization", "Bearer "+viewerToken)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func dataOf(body []byte) map[string]interface{} {
	var parsed map[string]interface{}
	json.Unmarshal(body, &parsed)
	if data, ok := parsed["data"].(map[string]interface{}); ok {
		return data
	}
	return parsed
}

func main() {
	color.Cyan("🚀 Starting Monitor API Smoke Test\n")

	// 1. Status before anything else
	color.Yellow("\n[MONITOR] 1. Get Status")
	resp, body, err := sendRequest("GET", "/monitor/v1/status", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(dataOf(body))

	// 2. Metrics (derived values only; the raw windows are long)
	color.Yellow("\n[MONITOR] 2. Get Metrics")
	resp, body, err = sendRequest("GET", "/monitor/v1/metrics", nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	data := dataOf(body)
	fmt.Printf("Phase: %v\n", data["phase"])
	prettyPrint(data["derived"])

	// 3. Start a short learning session
	color.Yellow("\n[MONITOR] 3. Start Learning Session")
	startReq := map[string]interface{}{
		"steps":    10,
		"delay_ms": 200,
	}
	resp, body, err = sendRequest("POST", "/monitor/v1/learning/start", startReq)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(dataOf(body))

	// Give the simulation a moment to confirm the mode switch
	time.Sleep(1 * time.Second)

	// 4. Status should now report learning_active
	color.Yellow("\n[MONITOR] 4. Get Status (expecting learning_active)")
	resp, body, err = sendRequest("GET", "/monitor/v1/status", nil)
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Status: %s", resp.Status)
		fmt.Printf("Mode: %v InputEnabled: %v\n", dataOf(body)["mode"], dataOf(body)["input_enabled"])
	}

	// 5. Pause, then resume
	color.Yellow("\n[MONITOR] 5. Pause Learning")
	resp, body, err = sendRequest("POST", "/monitor/v1/learning/pause", nil)
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Status: %s", resp.Status)
		prettyPrint(dataOf(body))
	}

	color.Yellow("\n[MONITOR] 5a. Resume Learning")
	resp, body, err = sendRequest("POST", "/monitor/v1/learning/pause", nil)
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Status: %s", resp.Status)
		prettyPrint(dataOf(body))
	}

	// 6. Prompt while a session is open should be rejected with 409
	color.Yellow("\n[MONITOR] 6. Send Prompt During Session (expecting 409)")
	promptReq := map[string]interface{}{
		"text": "what patterns are you seeing?",
	}
	resp, body, err = sendRequest("POST", "/monitor/v1/prompt", promptReq)
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Status: %s", resp.Status)
		prettyPrint(dataOf(body))
	}

	// 7. Stop the session
	color.Yellow("\n[MONITOR] 7. Stop Learning")
	resp, body, err = sendRequest("POST", "/monitor/v1/learning/stop", nil)
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Status: %s", resp.Status)
		prettyPrint(dataOf(body))
	}

	time.Sleep(1 * time.Second)

	// 8. Prompt again, now in interactive mode
	color.Yellow("\n[MONITOR] 8. Send Prompt (interactive)")
	resp, body, err = sendRequest("POST", "/monitor/v1/prompt", promptReq)
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Status: %s", resp.Status)
		prettyPrint(dataOf(body))
	}

	// 9. Interactions should list the exchange
	color.Yellow("\n[MONITOR] 9. Get Interactions")
	resp, body, err = sendRequest("GET", "/monitor/v1/interactions", nil)
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Status: %s", resp.Status)
		var parsed map[string]interface{}
		json.Unmarshal(body, &parsed)
		if entries, ok := parsed["data"].([]interface{}); ok {
			fmt.Printf("Interactions: %d\n", len(entries))
			if len(entries) > 0 {
				prettyPrint(entries[len(entries)-1])
			}
		}
	}

	// 10. Graph (concise printing to avoid a huge node dump)
	color.Yellow("\n[MONITOR] 10. Get Graph")
	resp, body, err = sendRequest("GET", "/monitor/v1/graph", nil)
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Status: %s", resp.Status)
		data = dataOf(body)
		if frame, ok := data["frame"].(map[string]interface{}); ok {
			nodes, _ := frame["nodes"].([]interface{})
			edges, _ := frame["edges"].([]interface{})
			fmt.Printf("Frame: %d nodes, %d edges (retained %v)\n", len(nodes), len(edges), data["retained_nodes"])
		} else {
			fmt.Println("No frame yet (simulation quiet)")
		}
	}

	// 11. Alerts
	color.Yellow("\n[MONITOR] 11. Get Alerts")
	resp, body, err = sendRequest("GET", "/monitor/v1/alerts", nil)
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Status: %s", resp.Status)
		prettyPrint(dataOf(body))
	}

	// 12. Logs (count only)
	color.Yellow("\n[MONITOR] 12. Get Logs")
	resp, body, err = sendRequest("GET", "/monitor/v1/logs?limit=5", nil)
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Status: %s", resp.Status)
		var parsed map[string]interface{}
		json.Unmarshal(body, &parsed)
		if entries, ok := parsed["data"].([]interface{}); ok {
			fmt.Printf("Log entries returned: %d\n", len(entries))
		}
	}

	color.Cyan("\n✅ Smoke Sequence Complete")
}
