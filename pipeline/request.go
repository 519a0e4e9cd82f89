package pipeline

type Request struct {
	Tid   string   `json:"tid"`
	Lines []string `json:"lines"`
}
