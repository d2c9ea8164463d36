package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/skillsenselab/voicekit/component"
	"github.com/skillsenselab/voicekit/logger"
)

// BusinessComponentInfo represents a session-layer component (gateway,
// dispatcher, orchestrator).
type BusinessComponentInfo struct {
	Name         string
	Type         string // "service", "pipeline"
	Status       string
	Dependencies []string
}

// ClientInfo represents an external API client.
type ClientInfo struct {
	Name   string
	Target string
	Status string
	Type   string // "http", "websocket"
}

// Summary tracks and displays the application bootstrap process.
// Infrastructure, routes and health are collected live from the component
// registry at display time; session-layer pieces and external clients are
// tracked by the assembly code as it wires them.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	business        []BusinessComponentInfo
	clients         []ClientInfo
}

// NewSummary creates a new bootstrap summary tracker.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
		business:    make([]BusinessComponentInfo, 0),
		clients:     make([]ClientInfo, 0),
	}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackBusinessComponent records a session-layer component.
func (s *Summary) TrackBusinessComponent(name, componentType, status string, dependencies []string) {
	s.business = append(s.business, BusinessComponentInfo{
		Name:         name,
		Type:         componentType,
		Status:       status,
		Dependencies: dependencies,
	})
}

// TrackClient records an external client connection.
func (s *Summary) TrackClient(name, target, status, clientType string) {
	s.clients = append(s.clients, ClientInfo{
		Name:   name,
		Target: target,
		Status: status,
		Type:   clientType,
	})
}

// infraRow pairs a component's description with its live health.
type infraRow struct {
	desc   component.Description
	health component.Health
}

// DisplaySummary prints the bootstrap summary. Components that implement
// Describable render as infrastructure rows, RouteProviders contribute
// their routes, and every component's live health feeds the closing tally.
func (s *Summary) DisplaySummary(registry *component.Registry, log *logger.Logger) {
	ctx := context.Background()

	var infra []infraRow
	var plain []component.Health
	var routes []component.Route

	if registry != nil {
		for _, c := range registry.All() {
			h := c.Health(ctx)
			if d, ok := c.(component.Describable); ok {
				infra = append(infra, infraRow{desc: d.Describe(), health: h})
			} else {
				plain = append(plain, h)
			}
			if rp, ok := c.(component.RouteProvider); ok {
				routes = append(routes, rp.Routes()...)
			}
		}
	}

	// Header
	fmt.Printf("\n")
	fmt.Printf("🚀 %s v%s started in %.2fs\n\n",
		s.serviceName, s.version, s.startupDuration.Seconds())

	// Infrastructure (described components)
	if len(infra) > 0 {
		fmt.Printf("📊 Infrastructure\n")
		for i, row := range infra {
			prefix := "├──"
			if i == len(infra)-1 {
				prefix = "└──"
			}
			icon := healthStatusIcon(row.health.Status)
			details := row.desc.Details
			if row.desc.Port > 0 {
				details = fmt.Sprintf("%s (:%d)", details, row.desc.Port)
			}
			fmt.Printf("   %s %s %s: %s\n", prefix, icon, row.desc.Name, details)
		}
		fmt.Printf("\n")
	}

	// Components without a description
	if len(plain) > 0 {
		fmt.Printf("📦 Components\n")
		for i, h := range plain {
			prefix := "├──"
			if i == len(plain)-1 {
				prefix = "└──"
			}
			icon := healthStatusIcon(h.Status)
			fmt.Printf("   %s %s %s (%s)\n", prefix, icon, h.Name, strings.ToLower(string(h.Status)))
		}
		fmt.Printf("\n")
	}

	if len(infra) == 0 && len(plain) == 0 {
		fmt.Printf("   └── No components registered\n")
	}

	// Session layer
	if len(s.business) > 0 {
		fmt.Printf("💼 Pipeline\n")
		for i, b := range s.business {
			prefix := "├──"
			if i == len(s.business)-1 {
				prefix = "└──"
			}
			fmt.Printf("   %s %s [%s] (%s)\n", prefix, businessIcon(b.Type), b.Name, b.Status)
			for j, dep := range b.Dependencies {
				depPrefix := "│   ├──"
				if i == len(s.business)-1 {
					depPrefix = "    ├──"
				}
				if j == len(b.Dependencies)-1 {
					if i == len(s.business)-1 {
						depPrefix = "    └──"
					} else {
						depPrefix = "│   └──"
					}
				}
				fmt.Printf("   %s 🔗 %s\n", depPrefix, dep)
			}
		}
		fmt.Printf("\n")
	}

	// External clients
	if len(s.clients) > 0 {
		fmt.Printf("🔌 Providers\n")
		for i, c := range s.clients {
			prefix := "├──"
			if i == len(s.clients)-1 {
				prefix = "└──"
			}
			fmt.Printf("   %s %s → %s [%s] (%s)\n", prefix, c.Name, c.Target, c.Type, c.Status)
		}
		fmt.Printf("\n")
	}

	// Routes
	if len(routes) > 0 {
		fmt.Printf("🌐 Routes (%d)\n", len(routes))
		for i, r := range routes {
			prefix := "├──"
			if i == len(routes)-1 {
				prefix = "└──"
			}
			fmt.Printf("   %s %-7s %s → %s\n", prefix, r.Method, r.Path, r.Handler)
		}
		fmt.Printf("\n")
	}

	// Closing tally over every registered component
	total := len(infra) + len(plain)
	if total > 0 {
		healthy := 0
		for _, row := range infra {
			if row.health.Status == component.StatusHealthy {
				healthy++
			}
		}
		for _, h := range plain {
			if h.Status == component.StatusHealthy {
				healthy++
			}
		}
		if healthy == total {
			fmt.Printf("✅ All components healthy (%d/%d)\n", healthy, total)
		} else {
			fmt.Printf("⚠️  Some components have issues (%d/%d healthy)\n", healthy, total)
		}
	}
	fmt.Printf("\n")

	if log != nil {
		log.Debug("Startup summary displayed", map[string]interface{}{
			"components": total,
			"routes":     len(routes),
		})
	}
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}

func businessIcon(compType string) string {
	switch compType {
	case "service":
		return "⚙️"
	case "pipeline":
		return "🔄"
	default:
		return "💼"
	}
}
