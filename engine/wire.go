package engine

// LinkRequest is the body of POST /link.
type LinkRequest struct {
	Dir string `json:"dir"`
}

// LinkResponse is the reply to POST /link, sent once the link exists.
type LinkResponse struct {
	Link string `json:"link"`
}

// JoinRequest is the body of POST /join. Files restricts the download to a
// selection; empty means everything.
type JoinRequest struct {
	Link  string   `json:"link"`
	Dir   string   `json:"dir"`
	Files []string `json:"files,omitempty"`
}

// SwarmMessage is one frame on the /swarm/{link} websocket. The first frame
// is always of type "state"; later frames carry a peer event together with
// the counts after it.
type SwarmMessage struct {
	Type        string `json:"type"`
	Connections int    `json:"connections"`
	Connecting  int    `json:"connecting"`
	Peer        string `json:"peer,omitempty"`
}

// MessageState is the type of the initial swarm frame.
const MessageState = "state"
