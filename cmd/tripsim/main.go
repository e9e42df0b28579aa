// Command tripsim drives a carpool trip against a running api. It posts
// interpolated driver positions to the REST location endpoint and can
// listen on the plain websocket as a rider to show what gets fanned out.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type point struct {
	Lat float64
	Lon float64
}

func parsePoint(s string) (point, error) {
	var p point
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%f,%f", &p.Lat, &p.Lon); err != nil {
		return point{}, fmt.Errorf("parse %q as lat,lon: %w", s, err)
	}
	return p, nil
}

type locationBody struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	NextStop struct {
		Address   string `json:"address"`
		RequestID string `json:"requestId"`
	} `json:"nextStop"`
	TimeUntilNextStop  string `json:"timeUntilNextStop"`
	IsLeaving          bool   `json:"isLeaving"`
	IsFinalDestination bool   `json:"isFinalDestination"`
}

func main() {
	var (
		baseURL     = flag.String("base-url", "http://localhost:8080", "api base url")
		driverToken = flag.String("driver-token", "", "bearer token of the carpool driver")
		riderToken  = flag.String("rider-token", "", "optional bearer token of a rider to listen as")
		carpoolID   = flag.String("carpool", "", "carpool id")
		requestID   = flag.String("request", "", "request id of the next stop")
		from        = flag.String("from", "-1.2921,36.8219", "start position lat,lon")
		to          = flag.String("to", "-1.2833,36.8167", "end position lat,lon")
		steps       = flag.Int("steps", 10, "number of positions to send")
		interval    = flag.Duration("interval", 2*time.Second, "delay between positions")
	)
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if *driverToken == "" || *carpoolID == "" || *steps < 2 {
		fmt.Fprintln(os.Stderr, "usage: tripsim -driver-token T -carpool ID [-steps N>=2] [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}
	start, err := parsePoint(*from)
	if err != nil {
		logger.Fatal("bad -from", zap.Error(err))
	}
	end, err := parsePoint(*to)
	if err != nil {
		logger.Fatal("bad -to", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *riderToken != "" {
		go listen(ctx, *baseURL, *riderToken, logger)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	endpoint := strings.TrimRight(*baseURL, "/") + "/api/carpools/" + url.PathEscape(*carpoolID) + "/location"

	for i := 0; i < *steps; i++ {
		f := float64(i) / float64(*steps-1)
		body := locationBody{
			Lat:                start.Lat + (end.Lat-start.Lat)*f,
			Lon:                start.Lon + (end.Lon-start.Lon)*f,
			TimeUntilNextStop:  fmt.Sprintf("%d min", (*steps-1-i)*int(interval.Seconds())/60),
			IsLeaving:          i == 0,
			IsFinalDestination: i == *steps-1,
		}
		body.NextStop.RequestID = *requestID

		status, err := post(ctx, client, endpoint, *driverToken, body)
		if err != nil {
			logger.Error("send location", zap.Int("step", i), zap.Error(err))
		} else {
			logger.Info("location sent",
				zap.Int("step", i),
				zap.Int("status", status),
				zap.Float64("lat", body.Lat),
				zap.Float64("lon", body.Lon),
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(*interval):
		}
	}
}

func post(ctx context.Context, client *http.Client, endpoint, token string, body locationBody) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// listen prints every frame the rider receives on /api/ws.
func listen(ctx context.Context, baseURL, token string, logger *zap.Logger) {
	wsURL := strings.Replace(strings.TrimRight(baseURL, "/"), "http", "ws", 1) + "/api/ws"
	header := http.Header{"Authorization": []string{"Bearer " + token}}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		logger.Error("rider websocket dial failed", zap.String("url", wsURL), zap.Error(err))
		return
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("rider websocket closed", zap.Error(err))
			}
			return
		}
		logger.Info("rider received", zap.ByteString("frame", msg))
	}
}
