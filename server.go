package main

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"

	"cellarena/game"
)

const (
	qrSize   = 256
	topLimit = 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// StatsResponse is served by /api/stats
type StatsResponse struct {
	Players     int            `json:"players"`
	Connections int            `json:"connections"`
	Tick        uint64         `json:"tick"`
	Food        int            `json:"food"`
	Viruses     int            `json:"viruses"`
	Peers       int            `json:"peers"`
	Active      int            `json:"active"`           // distinct players since yesterday
	Events      map[string]int `json:"events,omitempty"` // since yesterday
}

// SetupRoutes configures HTTP routes. publicURL is encoded by /qr; when
// empty the request host is used.
func SetupRoutes(hub *Hub, clientDir, publicURL string) *http.ServeMux {
	mux := http.NewServeMux()

	// Serve static files with no-cache so browsers always revalidate
	fs := http.FileServer(http.Dir(clientDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		if r.URL.Path == "/" {
			http.ServeFile(w, r, filepath.Join(clientDir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	}))

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.TryConnect(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.TrackDisconnect(ip)
			log.Printf("upgrade error: %v", err)
			return
		}

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	// QR code of the join URL for phones
	mux.HandleFunc("/qr", func(w http.ResponseWriter, r *http.Request) {
		target := publicURL
		if target == "" {
			target = "http://" + r.Host + "/"
		}
		png, err := qrcode.Encode(target, qrcode.Medium, qrSize)
		if err != nil {
			log.Printf("qr encode error: %v", err)
			http.Error(w, "qr encode failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	})

	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		world := hub.arena.World()
		resp := StatsResponse{
			Players:     world.PlayerCount(),
			Connections: hub.TotalConns(),
			Tick:        world.TickCount(),
			Food:        world.Count(game.KindFood),
			Viruses:     world.Count(game.KindVirus),
		}
		if hub.analytics != nil {
			counts, err := hub.analytics.EventCounts(1)
			if err != nil {
				log.Printf("analytics query error: %v", err)
			}
			resp.Events = counts
			if resp.Active, err = hub.analytics.ActivePlayers(1); err != nil {
				log.Printf("analytics query error: %v", err)
			}
			resp.Peers = hub.analytics.ConcurrentPeers()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	// Persistent level ranking
	mux.HandleFunc("/api/top", func(w http.ResponseWriter, r *http.Request) {
		if hub.db == nil {
			http.Error(w, "no database", http.StatusServiceUnavailable)
			return
		}
		rows, err := hub.db.TopProgression(topLimit)
		if err != nil {
			log.Printf("top progression error: %v", err)
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rows)
	})

	return mux
}
