package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getStatus implements `GET /status` (§6): the vitals snapshot (§4.9) plus
// total_alerts.
func (g *Gateway) getStatus(c *gin.Context) {
	sessionID := sessionIDOf(c)
	vitals := g.sessions.Vitals(sessionID)

	c.JSON(http.StatusOK, gin.H{
		"census":           vitals.Census,
		"processed":        vitals.Processed,
		"lwbs":             vitals.LWBSCount,
		"sim_hour":         vitals.SimHour,
		"history":          vitals.History,
		"nedocs":           vitals.NEDOCS,
		"hallway_patients": vitals.HallwayPatients,
		"avg_los":          vitals.AvgLOSHours,
		"patients":         vitals.Patients,
		"total_alerts":     g.sessions.TotalAlerts(sessionID),
	})
}

// getAlerts implements `GET /alerts` (§6): the full alert log for the
// session.
func (g *Gateway) getAlerts(c *gin.Context) {
	sessionID := sessionIDOf(c)
	c.JSON(http.StatusOK, g.sessions.Alerts(sessionID))
}

// getFacilities implements `GET /facilities` (§6): the static facility
// records, each augmented with current_census.
func (g *Gateway) getFacilities(c *gin.Context) {
	sessionID := sessionIDOf(c)
	views := g.sessions.Facilities(sessionID)

	out := make([]gin.H, len(views))
	for i, v := range views {
		out[i] = gin.H{
			"id":             v.ID,
			"name":           v.Name,
			"lat":            v.Lat,
			"lon":            v.Lon,
			"capacity":       v.Capacity,
			"category":       v.Category,
			"physical_beds":  v.Resources.PhysicalBeds,
			"surge_capacity": v.Resources.SurgeCapacity,
			"chair_capacity": v.Resources.ChairCapacity,
			"current_census": v.CurrentCensus,
		}
	}
	c.JSON(http.StatusOK, out)
}

// handleWebSocket upgrades the connection and streams the session's vitals
// snapshot on every tick (enrichment beyond §6's read endpoints — see
// SPEC_FULL.md §11). The underlying JSON read endpoints remain the spec's
// boundary; this is an additive push channel on top of them.
func (g *Gateway) handleWebSocket(c *gin.Context) {
	sessionID := sessionIDOf(c)

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := g.broker.Subscribe(sessionID)
	defer g.broker.Unsubscribe(sessionID, sub.ID)

	// Push the current state immediately so a subscriber doesn't wait a full
	// tick interval for its first frame.
	if err := conn.WriteJSON(g.sessions.Vitals(sessionID)); err != nil {
		return
	}

	for vitals := range sub.Updates {
		if err := conn.WriteJSON(vitals); err != nil {
			return
		}
	}
}
