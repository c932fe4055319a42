package othellodto

// GameState is the JSON body of GET /state and POST /move?ai=true.
type GameState struct {
	Board           [][]int  `json:"board"`
	CurrentPlayer   int      `json:"currentPlayer"`
	LastMove        []int    `json:"lastMove,omitempty"`
	Winner          *int     `json:"winner,omitempty"`
	BlackPlayerName string   `json:"blackPlayerName,omitempty"`
	MoveHistory     []string `json:"moveHistory,omitempty"`
}
