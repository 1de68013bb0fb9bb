package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "app":
		handleApp(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: jobtracker auth <register|login|logout|whoami>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "register":
		registerUser(args[1:])
	case "login":
		loginUser(args[1:])
	case "logout":
		logoutUser()
	case "whoami":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", subCmd)
	}
}

func handleApp(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: jobtracker app <list|create|get|update|delete>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listApplications(args[1:])
	case "create":
		createApplication(args[1:])
	case "get":
		getApplication(args[1:])
	case "update":
		updateApplication(args[1:])
	case "delete":
		deleteApplication(args[1:])
	default:
		fmt.Printf("unknown app command: %s\n", subCmd)
	}
}

// Auth commands
func registerUser(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"email": *email, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/auth/register", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ User registered: %s\n", *email)
	} else {
		fmt.Printf("✗ Registration failed: %v\n", result["error"])
	}
}

func loginUser(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	// The login endpoint takes form-encoded credentials
	form := url.Values{}
	form.Set("username", *email)
	form.Set("password", *password)
	resp, err := http.Post(getAPIURL()+"/auth/login", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		if token, ok := result["access_token"].(string); ok {
			saveToken(token)
			fmt.Printf("✓ Logged in as: %s\n", *email)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result["error"])
	}
}

func logoutUser() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	req, _ := http.NewRequest("GET", getAPIURL()+"/me", nil)
	if !addAuthHeader(req) {
		fmt.Println("Not logged in")
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		fmt.Printf("✓ Logged in as: %v\n", result["email"])
	} else {
		fmt.Println("Not logged in (token rejected)")
	}
}

// Application commands
func listApplications(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	status := fs.String("status", "", "filter by status")
	all := fs.Bool("all", false, "include soft-deleted applications")

	fs.Parse(args)

	q := url.Values{}
	if *status != "" {
		q.Set("status", *status)
	}
	if *all {
		q.Set("include_inactive", "true")
	}

	endpoint := getAPIURL() + "/applications"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, _ := http.NewRequest("GET", endpoint, nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		printAPIError(resp)
		return
	}

	var apps []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&apps)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOMPANY\tROLE\tSTATUS\tACTIVE\tAPPLIED")
	for _, a := range apps {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\t%v\n",
			a["id"], a["company"], a["role_title"], a["status"], a["is_active"], a["applied_at"])
	}
	w.Flush()
}

func createApplication(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	company := fs.String("company", "", "company name")
	role := fs.String("role", "", "role title")
	status := fs.String("status", "", "status (applied, interview, offer, rejected)")
	location := fs.String("location", "", "location")
	link := fs.String("link", "", "posting link")
	notes := fs.String("notes", "", "free-form notes")

	fs.Parse(args)

	if *company == "" || *role == "" {
		fmt.Println("Error: company and role are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]interface{}{
		"company":    *company,
		"role_title": *role,
	}
	if *status != "" {
		payload["status"] = *status
	}
	if *location != "" {
		payload["location"] = *location
	}
	if *link != "" {
		payload["link"] = *link
	}
	if *notes != "" {
		payload["notes"] = *notes
	}

	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", getAPIURL()+"/applications", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ Application created: #%v %v (%v)\n", result["id"], result["company"], result["status"])
	} else {
		fmt.Printf("✗ Create failed: %v\n", result["error"])
	}
}

func getApplication(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: jobtracker app get <id>")
		return
	}

	req, _ := http.NewRequest("GET", getAPIURL()+"/applications/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		printAPIError(resp)
		return
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	pretty, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(pretty))
}

func updateApplication(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: jobtracker app update <id> [flags]")
		return
	}
	id := args[0]

	fs := flag.NewFlagSet("update", flag.ExitOnError)
	company := fs.String("company", "", "company name")
	role := fs.String("role", "", "role title")
	status := fs.String("status", "", "status (applied, interview, offer, rejected)")
	location := fs.String("location", "", "location")
	link := fs.String("link", "", "posting link")
	notes := fs.String("notes", "", "free-form notes")

	fs.Parse(args[1:])

	// Only flags the caller actually set go into the patch
	payload := map[string]interface{}{}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "company":
			payload["company"] = *company
		case "role":
			payload["role_title"] = *role
		case "status":
			payload["status"] = *status
		case "location":
			payload["location"] = *location
		case "link":
			payload["link"] = *link
		case "notes":
			payload["notes"] = *notes
		}
	})

	if len(payload) == 0 {
		fmt.Println("Error: nothing to update")
		fs.PrintDefaults()
		return
	}

	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("PATCH", getAPIURL()+"/applications/"+id, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		fmt.Printf("✓ Application updated: #%v %v (%v)\n", result["id"], result["company"], result["status"])
	} else {
		fmt.Printf("✗ Update failed: %v\n", result["error"])
	}
}

func deleteApplication(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: jobtracker app delete <id>")
		return
	}

	req, _ := http.NewRequest("DELETE", getAPIURL()+"/applications/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == 204 {
		fmt.Printf("✓ Application deleted: #%s\n", args[0])
	} else {
		printAPIError(resp)
	}
}

// Helper functions
func getAPIURL() string {
	if url := os.Getenv("JOBTRACKER_API"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.jobtracker/token"
}

func saveToken(token string) error {
	home, _ := os.UserHomeDir()
	os.MkdirAll(home+"/.jobtracker", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return strings.TrimSpace(string(data))
}

func addAuthHeader(req *http.Request) bool {
	token := loadToken()
	if token == "" {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return true
}

func printAPIError(resp *http.Response) {
	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	fmt.Printf("✗ Request failed (%d): %v\n", resp.StatusCode, result["error"])
}

func printUsage() {
	fmt.Print(`JobTracker CLI

Usage:
  jobtracker <command> [options]

Commands:
  auth  User authentication (register, login, logout, whoami)
  app   Application operations (list, create, get, update, delete)
  help  Show this help message

Environment Variables:
  JOBTRACKER_API    API endpoint (default: http://localhost:8080)

Examples:
  jobtracker auth register -email user@example.com -password secretpass
  jobtracker auth login -email user@example.com -password secretpass
  jobtracker app create -company Acme -role "Backend Engineer"
  jobtracker app list -status interview
  jobtracker app update 7 -status offer
  jobtracker app delete 7
`)
}
