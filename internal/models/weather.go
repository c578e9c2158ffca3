package models

// WeatherRecord is a single campus location's weather snapshot. Values are
// preformatted for display, with units embedded (e.g. "68°F").
type WeatherRecord struct {
	LocationName   string `json:"locationName" yaml:"locationName"`
	Temperature    string `json:"temperature" yaml:"temperature"`
	Humidity       string `json:"humidity" yaml:"humidity"`
	Pressure       string `json:"pressure" yaml:"pressure"`
	Timestamp      string `json:"timestamp" yaml:"timestamp"`
	ImageName      string `json:"imageName" yaml:"imageName"`
	DetailLocation string `json:"detailLocation" yaml:"detailLocation"`
}
