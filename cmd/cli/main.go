package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
)

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}
	adminKey := os.Getenv("ADMIN_API_KEY")

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Server name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)

	fmt.Print("Address (host or host:port, default port 25565): ")
	raw, _ := reader.ReadString('\n')
	raw = strings.TrimSpace(raw)

	host := raw
	port := 25565
	if i := strings.LastIndex(raw, ":"); i > 0 {
		if p, err := strconv.Atoi(raw[i+1:]); err == nil {
			host, port = raw[:i], p
		}
	}
	if name == "" || host == "" {
		fmt.Println("Name and address are required.")
		return
	}

	body, _ := json.Marshal(map[string]any{"name": name, "address": host, "port": port})
	req, _ := http.NewRequest(http.MethodPost, api+"/api/servers", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if adminKey != "" {
		req.Header.Set("X-API-Key", adminKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		fmt.Println("Added! It will be probed on the next tick; check GET /api/servers.")
	} else {
		fmt.Println("API returned status:", resp.Status)
	}
}
