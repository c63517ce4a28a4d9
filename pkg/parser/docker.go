package parser

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// DockerInfo is the subset of `docker info --format {{json .}}` the
// checks care about.
type DockerInfo struct {
	ServerVersion   string   `json:"server_version,omitempty"`
	OperatingSystem string   `json:"operating_system,omitempty"`
	OSType          string   `json:"os_type,omitempty"`
	Containers      int64    `json:"containers"`
	ServerErrors    []string `json:"server_errors,omitempty"`
}

// ParseDockerInfo extracts DockerInfo from the JSON the docker CLI prints.
// The CLI still prints a document when the daemon is unreachable, with the
// reason in ServerErrors.
func ParseDockerInfo(raw []byte) (DockerInfo, error) {
	text := strings.TrimSpace(string(raw))
	if !gjson.Valid(text) {
		return DockerInfo{}, fmt.Errorf("docker info: invalid JSON output")
	}

	doc := gjson.Parse(text)
	info := DockerInfo{
		ServerVersion:   doc.Get("ServerVersion").String(),
		OperatingSystem: doc.Get("OperatingSystem").String(),
		OSType:          doc.Get("OSType").String(),
		Containers:      doc.Get("Containers").Int(),
	}
	doc.Get("ServerErrors").ForEach(func(_, value gjson.Result) bool {
		if msg := strings.TrimSpace(value.String()); msg != "" {
			info.ServerErrors = append(info.ServerErrors, msg)
		}
		return true
	})
	return info, nil
}
