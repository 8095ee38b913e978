// Command seed-holidays loads Brazilian national holidays from the Nager.Date
// public API into the holidays table for the given years.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"bitbucket.org/camposlog/tracking_backend/config"
	"bitbucket.org/camposlog/tracking_backend/models"
)

type publicHoliday struct {
	Date      string `json:"date"`
	LocalName string `json:"localName"`
	Global    bool   `json:"global"`
}

func main() {
	from := flag.Int("from", time.Now().Year(), "First year to seed.")
	to := flag.Int("to", time.Now().Year()+1, "Last year to seed (inclusive).")
	country := flag.String("country", "BR", "ISO country code.")
	flag.Parse()

	if *to < *from {
		fmt.Fprintln(os.Stderr, "-to must not be before -from")
		os.Exit(1)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	client := &http.Client{Timeout: 30 * time.Second}
	total := 0
	for year := *from; year <= *to; year++ {
		holidays, err := fetchHolidays(ctx, client, year, *country)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not fetch holidays for %d: %v\n", year, err)
			os.Exit(1)
		}
		if err := models.UpsertHolidays(ctx, holidays); err != nil {
			fmt.Fprintf(os.Stderr, "could not save holidays for %d: %v\n", year, err)
			os.Exit(1)
		}
		total += len(holidays)
		fmt.Printf("%d: %d holidays\n", year, len(holidays))
	}
	fmt.Printf("seeded %d holidays\n", total)
}

func fetchHolidays(ctx context.Context, client *http.Client, year int, country string) ([]*models.Holiday, error) {
	url := fmt.Sprintf("https://date.nager.at/api/v3/PublicHolidays/%d/%s", year, country)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload []publicHoliday
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	holidays := make([]*models.Holiday, 0, len(payload))
	for _, h := range payload {
		// Regional holidays don't stop the national operation.
		if !h.Global {
			continue
		}
		date, err := time.ParseInLocation("2006-01-02", h.Date, time.Local)
		if err != nil {
			continue
		}
		holidays = append(holidays, &models.Holiday{Date: date, Description: h.LocalName})
	}
	return holidays, nil
}
