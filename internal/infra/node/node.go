package node

import (
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Node describes the running thermostat process.
type Node struct {
	ID         string    `json:"id"`
	Hostname   string    `json:"hostname"`
	IPAddress  string    `json:"ip_address"`
	Version    string    `json:"version"`
	CommitHash string    `json:"commit_hash"`
	StartedAt  time.Time `json:"started_at"`
	Uptime     string    `json:"uptime"`
}

// Set at build time through -ldflags.
var Version = "development"
var CommitHash = "unknown"

var (
	startedAt = time.Now()

	identityOnce sync.Once
	nodeID       string
	hostname     string
	ipAddress    string
)

func GetNodeInfo() *Node {
	identityOnce.Do(resolveIdentity)
	return &Node{
		ID:         nodeID,
		Hostname:   hostname,
		IPAddress:  ipAddress,
		Version:    Version,
		CommitHash: CommitHash,
		StartedAt:  startedAt,
		Uptime:     time.Since(startedAt).Truncate(time.Second).String(),
	}
}

func resolveIdentity() {
	nodeID = uuid.NewString()
	hostname = "localhost"
	if h, err := os.Hostname(); err == nil && h != "" {
		hostname = h
	}
	ipAddress = firstUnicastAddress()
}

// firstUnicastAddress picks the first non loopback IPv4 address of the host
// without touching the network.
func firstUnicastAddress() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip := ipNet.IP.To4(); ip != nil {
			return ip.String()
		}
	}
	return "127.0.0.1"
}
