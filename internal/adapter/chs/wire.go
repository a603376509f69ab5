package chs

import "encoding/xml"

// Wire types for the observations service. Field order in searchRequest
// matches the service's parameter order; every parameter is mandatory.

type searchRequest struct {
	XMLName           xml.Name `xml:"search"`
	DataName          string   `xml:"dataName"`
	LatitudeMin       float64  `xml:"latitudeMin"`
	LatitudeMax       float64  `xml:"latitudeMax"`
	LongitudeMin      float64  `xml:"longitudeMin"`
	LongitudeMax      float64  `xml:"longitudeMax"`
	DepthMin          float64  `xml:"depthMin"`
	DepthMax          float64  `xml:"depthMax"`
	DateMin           string   `xml:"dateMin"`
	DateMax           string   `xml:"dateMax"`
	Start             int      `xml:"start"`
	SizeMax           int      `xml:"sizeMax"`
	Metadata          bool     `xml:"metadata"`
	MetadataSelection string   `xml:"metadataSelection"`
	Order             string   `xml:"order"`
}

type searchResponse struct {
	XMLName xml.Name     `xml:"searchResponse"`
	Data    []waterLevel `xml:"return>data"`
}

// waterLevel is one observation row. boundaryDate.max is the observation
// timestamp in UTC, "YYYY-MM-DD HH:MM:SS".
type waterLevel struct {
	BoundaryDateMax string  `xml:"boundaryDate>max"`
	Value           float64 `xml:"value"`
}

type getMetadataRequest struct {
	XMLName xml.Name `xml:"getMetadata"`
}

type metadataResponse struct {
	XMLName xml.Name       `xml:"getMetadataResponse"`
	Items   []metadataItem `xml:"return"`
}

type metadataItem struct {
	Name  string `xml:"name"`
	Value string `xml:"value"`
}
