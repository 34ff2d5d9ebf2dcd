// README: Terminal client for the keyword-search dialogue; optionally plans an itinerary once the trip is known.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
)

func main() {
	baseURL := flag.String("base-url", "http://localhost:8000", "pocket api base URL")
	choicesPath := flag.String("choices", "", "JSON file with candidate places; plans an itinerary once the trip is extracted")
	variant := flag.String("variant", "full", "itinerary variant: full, slim, mini or changed")
	flag.Parse()

	jar, err := cookiejar.New(nil)
	if err != nil {
		log.Fatal(err)
	}
	client := &http.Client{Jar: jar, Timeout: 3 * time.Minute}

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		log.Fatalf("markdown renderer: %v", err)
	}

	fmt.Println("Where would you like to go? (empty line to quit)")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return
		}

		var reply map[string]any
		if err := post(client, *baseURL+"/keyword-search", map[string]any{"input": line}, &reply); err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}

		if text, ok := reply["response"].(string); ok {
			out, err := renderer.Render(text)
			if err != nil {
				out = text
			}
			fmt.Print(out)
			continue
		}

		pretty, _ := json.MarshalIndent(reply, "", "  ")
		fmt.Printf("Trip:\n%s\n", pretty)
		if *choicesPath == "" {
			return
		}
		if err := planItinerary(client, *baseURL, *variant, *choicesPath, reply); err != nil {
			log.Fatal(err)
		}
		return
	}
}

func planItinerary(client *http.Client, baseURL, variant, choicesPath string, trip map[string]any) error {
	raw, err := os.ReadFile(choicesPath)
	if err != nil {
		return fmt.Errorf("read choices: %w", err)
	}
	var choices []json.RawMessage
	if err := json.Unmarshal(raw, &choices); err != nil {
		return fmt.Errorf("choices must be a JSON array: %w", err)
	}

	req := map[string]any{"choices": choices}
	for _, k := range []string{"days", "city", "country", "start_time", "end_time", "end_location", "preferences", "language"} {
		if v, ok := trip[k]; ok && v != nil {
			req[k] = v
		}
	}

	var plan map[string]any
	if err := post(client, baseURL+"/itinerary/"+variant, req, &plan); err != nil {
		return err
	}
	pretty, _ := json.MarshalIndent(plan, "", "  ")
	fmt.Printf("Itinerary:\n%s\n", pretty)
	return nil
}

func post(client *http.Client, url string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(data, &e) == nil && e.Detail != "" {
			return fmt.Errorf("%d: %s", resp.StatusCode, e.Detail)
		}
		return fmt.Errorf("%d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return json.Unmarshal(data, out)
}
