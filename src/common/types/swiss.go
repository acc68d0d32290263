package types

type SwissFeed struct {
	Station      *SwissStation     `json:"station"`
	Stationboard *[]SwissDeparture `json:"stationboard"`
}

type SwissStation struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type SwissDeparture struct {
	Stop     SwissStop `json:"stop"`
	Category string    `json:"category"`
	Number   string    `json:"number"`
	To       string    `json:"to"`
	Operator string    `json:"operator,omitempty"`
}

type SwissStop struct {
	Departure *string `json:"departure"`
	Platform  *string `json:"platform"`
	Delay     *int    `json:"delay"`
}
