package hub

import (
	"crewline/internal/model"
)

// MonitorService gathers hub statistics for the monitor endpoint.
type MonitorService struct {
	hub *Hub
}

func NewMonitorService(hub *Hub) *MonitorService {
	return &MonitorService{hub: hub}
}

// GetStats snapshots connections, rooms, and presence.
func (ms *MonitorService) GetStats() model.MonitorResponse {
	connections := ms.getConnectionStats()
	rooms := ms.getRoomStats()
	clients := ms.getClientList()

	status := "healthy"
	if connections.TotalConnected == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status:      status,
		Connections: connections,
		Rooms:       rooms,
		Clients:     clients,
	}
}

func (ms *MonitorService) getConnectionStats() model.ConnectionStats {
	ms.hub.clientsMu.RLock()
	total := len(ms.hub.clients)
	ms.hub.clientsMu.RUnlock()

	return model.ConnectionStats{
		TotalConnected: total,
		OnlineUsers:    len(ms.hub.presence.OnlineUsers()),
	}
}

func (ms *MonitorService) getRoomStats() model.RoomStats {
	stats := model.RoomStats{
		RoomDetails: make([]model.RoomInfo, 0),
	}

	for _, bucket := range ms.hub.shards {
		bucket.RLock()
		for room, members := range bucket.rooms {
			memberIDs := make([]string, 0, len(members))
			for _, c := range members {
				memberIDs = append(memberIDs, c.UserID())
			}

			stats.RoomDetails = append(stats.RoomDetails, model.RoomInfo{
				Room:         room,
				TotalMembers: len(members),
				MemberIDs:    memberIDs,
			})
			stats.TotalRooms++
			if len(members) > 0 {
				stats.ActiveRooms++
			}
		}
		bucket.RUnlock()
	}

	return stats
}

func (ms *MonitorService) getClientList() []model.ClientInfo {
	ms.hub.clientsMu.RLock()
	defer ms.hub.clientsMu.RUnlock()

	clients := make([]model.ClientInfo, 0, len(ms.hub.clients))
	for _, c := range ms.hub.clients {
		clients = append(clients, model.ClientInfo{
			ClientID: c.ID,
			UserID:   c.UserID(),
			State:    c.State(),
		})
	}
	return clients
}
