package repair

import "fmt"

// u2Template mirrors the original package's templates/u2.txt: a minimal
// uiautomator2 script skeleton the repaired event lines are substituted
// into. Script parsing/rewriting beyond this generation step is out of
// scope; downstream tooling owns anything more elaborate.
const u2Template = `import uiautomator2 as u2

%s = u2.connect(%q)
%s.app_start(%q)

%s
`

// renderU2 fills in the u2 script skeleton with the repaired step lines.
func renderU2(deviceName, deviceSerial, pkg, content string) string {
	return fmt.Sprintf(u2Template, deviceName, deviceSerial, deviceName, pkg, content)
}
