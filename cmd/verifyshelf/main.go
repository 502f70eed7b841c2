// verifyshelf checks a running shelf sync instance end to end: health,
// authentication, shelf listing, and the photo structure of the first
// product, to diagnose image updates that the platform accepts but never
// applies.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	_ = godotenv.Load()

	var (
		baseURL   string
		sessionID string
	)

	app := &cli.Command{
		Name:  "verifyshelf",
		Usage: "Verify a running shelf sync instance and inspect product photo structures",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "base-url",
				Usage:       "base URL of the shelf sync server",
				Sources:     cli.EnvVars("BASE_URL"),
				Value:       "http://127.0.0.1:8000",
				Destination: &baseURL,
			},
			&cli.StringFlag{
				Name:        "session",
				Usage:       "session identifier (value of the shelf_session_id cookie from an authenticated browser)",
				Sources:     cli.EnvVars("SHELF_SESSION_ID"),
				Destination: &sessionID,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return verify(ctx, baseURL, sessionID)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("verification failed")
	}
}

func verify(ctx context.Context, baseURL, sessionID string) error {
	client := &verifyClient{
		baseURL:   baseURL,
		sessionID: sessionID,
		http:      &http.Client{Timeout: 10 * time.Second},
	}

	fmt.Println("VERIFYING IMAGE UPDATE FUNCTIONALITY")
	fmt.Println("====================================")

	var health struct {
		Status string `json:"status"`
	}
	if err := client.getJSON(ctx, "/api/health", &health); err != nil {
		return fmt.Errorf("cannot connect to server: %w", err)
	}
	fmt.Println("server is running:", health.Status)

	var auth struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := client.getJSON(ctx, "/api/auth/status", &auth); err != nil {
		return fmt.Errorf("cannot check auth: %w", err)
	}
	if !auth.Authenticated {
		return fmt.Errorf("session is not authenticated; log in via a browser and pass --session")
	}
	fmt.Println("session is authenticated")

	var shelves []struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	}
	if err := client.getJSON(ctx, "/api/shelves", &shelves); err != nil {
		return fmt.Errorf("cannot get shelves: %w", err)
	}
	if len(shelves) == 0 {
		return fmt.Errorf("no shelves found")
	}
	shelf := shelves[0]
	fmt.Printf("testing with shelf %d (%s)\n", shelf.ID, shelf.Title)

	var products []struct {
		ID    int64             `json:"id"`
		Photo map[string]string `json:"photo"`
	}
	if err := client.getJSON(ctx, fmt.Sprintf("/api/shelves/%d/products", shelf.ID), &products); err != nil {
		return fmt.Errorf("cannot get products: %w", err)
	}
	fmt.Printf("found %d products\n", len(products))
	if len(products) == 0 {
		return fmt.Errorf("no products found in shelf %d", shelf.ID)
	}

	first := products[0]
	fmt.Printf("product ID: %d\n", first.ID)
	fmt.Println("current photo structure:")
	for _, size := range []string{"extra_small", "small", "medium", "large"} {
		fmt.Printf("  %s: %s\n", size, truncate(first.Photo[size], 50))
	}

	fmt.Println()
	fmt.Println("if uploads report success but images do not change:")
	fmt.Println("- try a small test image (under 1MB) in a supported format")
	fmt.Println("- verify the vendor permissions for this account")
	fmt.Println("- the platform may moderate or process images with a delay")
	return nil
}

type verifyClient struct {
	baseURL   string
	sessionID string
	http      *http.Client
}

func (c *verifyClient) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if c.sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "shelf_session_id", Value: c.sessionID})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, body)
	}
	return json.Unmarshal(body, v)
}

func truncate(s string, n int) string {
	if s == "" {
		return "None"
	}
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
