// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	admin := strings.TrimSpace(os.Getenv("ADMIN_API_KEYS"))
	pub := strings.TrimSpace(os.Getenv("PUBLIC_API_KEYS"))
	addr := strings.TrimSpace(os.Getenv("ADDR"))
	dbPath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	allowed := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS"))

	if admin == "" {
		fail("ADMIN_API_KEYS is empty (register/delete/ping routes would be open to everyone).")
	}
	if pub == "" {
		fail("PUBLIC_API_KEYS is empty (chart routes would be open to everyone).")
	}

	// Normalize and sanity-check lists (no spaces around commas).
	for name, v := range map[string]string{"ADMIN_API_KEYS": admin, "PUBLIC_API_KEYS": pub} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	if addr == "" {
		warn("ADDR is empty; the app default will be used.")
	} else {
		ok("ADDR=" + addr)
	}

	if dbPath == "" {
		warn("DATABASE_PATH empty — ping history will live in memory and vanish on restart.")
	} else {
		ok("DATABASE_PATH=" + dbPath)
	}

	if allowed == "" {
		warn("ALLOWED_ORIGINS empty — all origins will be allowed (dev default).")
	} else {
		ok("ALLOWED_ORIGINS=" + allowed)
	}

	ok("preflight passed")
}
