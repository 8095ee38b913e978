package consolidation

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"bitbucket.org/camposlog/tracking_backend/ingest"
)

// Route names fetched from the published assignment sheet that must never be
// shown as driver routes. Mostly municipality placeholders and sheet
// artifacts.
var excludedRoutes = map[string]struct{}{
	"CAMPOS DOS GOYTACAZES": {},
	"CARAPEBUS":             {},
	"#N/A":                  {},
	"E.A.MACHA\"":           {},
	"MACAÉ":                 {},
	"SÃO JOÃO DA BARRA":     {},
	"TOCOS":                 {},
	"TRAVESSÃO":             {},
}

const (
	routeSheetNameColumn  = 1
	routeSheetRouteColumn = 4
)

// RouteSheetClient reads the published driver-to-route assignment sheet,
// exported by Google Sheets as CSV.
type RouteSheetClient struct {
	httpClient *http.Client
	url        string
}

func NewRouteSheetClient() *RouteSheetClient {
	return &RouteSheetClient{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		url:        os.Getenv("ROUTE_SHEET_URL"),
	}
}

// FetchRouteMap returns normalized person name to route name. Rows whose
// route is on the exclusion list are dropped.
func (c *RouteSheetClient) FetchRouteMap(ctx context.Context) (map[string]string, error) {
	if c.url == "" {
		return nil, fmt.Errorf("ROUTE_SHEET_URL is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("route sheet returned status %d", resp.StatusCode)
	}

	routes := make(map[string]string)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	first := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if first {
			first = false
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := ingest.SplitDelimited(line, ',')
		if len(cols) <= routeSheetRouteColumn {
			continue
		}
		name := NormalizeName(cols[routeSheetNameColumn])
		route := strings.TrimSpace(cols[routeSheetRouteColumn])
		if name == "" || route == "" {
			continue
		}
		if _, excluded := excludedRoutes[strings.ToUpper(route)]; excluded {
			continue
		}
		routes[name] = route
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return routes, nil
}
