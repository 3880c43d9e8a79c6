package models

// Parameter is a key/value pair recorded once per published run, such as the
// thresholds a verdict was evaluated against.
type Parameter struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
