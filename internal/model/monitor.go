package model

// MonitorResponse aggregates hub statistics for the monitor endpoint.
type MonitorResponse struct {
	Status      string          `json:"status"`
	Connections ConnectionStats `json:"connections"`
	Rooms       RoomStats       `json:"rooms"`
	Clients     []ClientInfo    `json:"clients"`
}

// ConnectionStats summarizes gateway connections.
type ConnectionStats struct {
	TotalConnected int `json:"totalConnected"`
	OnlineUsers    int `json:"onlineUsers"`
}

// RoomStats summarizes room occupancy across all shards.
type RoomStats struct {
	TotalRooms  int        `json:"totalRooms"`
	ActiveRooms int        `json:"activeRooms"`
	RoomDetails []RoomInfo `json:"roomDetails"`
}

// RoomInfo describes one room and its current members.
type RoomInfo struct {
	Room         string   `json:"room"`
	TotalMembers int      `json:"totalMembers"`
	MemberIDs    []string `json:"memberIds"`
}

// ClientInfo describes one connected client.
type ClientInfo struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
	State    string `json:"state"`
}
