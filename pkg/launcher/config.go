package launcher

import (
	"bytes"
	"text/template"

	"github.com/provide-io/styrene/pkg/textutil"
)

// LocationStateFile is written next to the launchers once the bundle has
// been configured for its current directory.
const LocationStateFile = "_location.txt"

// PostinstScript is the post-install script path relative to the bundle
// root.
const PostinstScript = ScriptsSubdir + "/postinst.sh"

var configTemplate = template.Must(template.New("config.h").Funcs(template.FuncMap{
	"c": textutil.CEscape,
}).Parse(`#ifndef STYRENE_LAUNCHER_CONFIG_H
#define STYRENE_LAUNCHER_CONFIG_H

#define LAUNCHER_POSTINST L"{{c .Postinst}}"
#define LAUNCHER_LOCATION_STATE_FILE L"{{c .StateFile}}"
#define LAUNCHER_HELPER_SCRIPT L"{{c .HelperScript}}"
#define LAUNCHER_USE_HELPER {{.UseHelper}}

static const BOOL LAUNCHER_USE_TERMINAL = {{.UseTerminal}};
static const WCHAR LAUNCHER_RESOLVED_EXE[] = L"{{c .ResolvedExe}}";
static const WCHAR LAUNCHER_APP_ID[] = L"{{c .AppID}}";

static const WCHAR *LAUNCHER_CMDLINE_TEMPLATE[] __attribute__((unused)) = {
{{- range .Cmdline}}
    L"{{c .}}",
{{- end}}
    NULL
};

static const WCHAR *LAUNCHER_DIRECT_ARGS[] __attribute__((unused)) = {
{{- range .DirectArgs}}
    L"{{c .}}",
{{- end}}
    NULL
};

#endif
`))

type configData struct {
	Postinst     string
	StateFile    string
	HelperScript string
	UseHelper    int
	UseTerminal  int
	ResolvedExe  string
	AppID        string
	Cmdline      []string
	DirectArgs   []string
}

// ConfigHeader renders the config.h compiled into one launcher stub.
func ConfigHeader(s Strategy, helperScript, appID string, cmdline []string) ([]byte, error) {
	data := configData{
		Postinst:     PostinstScript,
		StateFile:    LocationStateFile,
		HelperScript: helperScript,
		AppID:        appID,
		Cmdline:      cmdline,
	}
	if s.Mode == Direct {
		data.ResolvedExe = s.ResolvedPath
		data.DirectArgs = s.Args
	} else {
		data.UseHelper = 1
	}
	if s.Terminal {
		data.UseTerminal = 1
	}

	var buf bytes.Buffer
	if err := configTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
