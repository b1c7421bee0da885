package audit

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/quaytools/quay-audit/internal/snapshot"
)

const (
	textReportUserLineTemplateConstant = "- %s [%s]%s\n"
	textReportRobotSuffixConstant      = " (robot)"
	unsupportedFormatTemplateConstant  = "unsupported report format %q"
	tableHeaderRepositoryConstant      = "Repository"
	tableHeaderUserConstant            = "User"
	tableHeaderRoleConstant            = "Role"
	tableHeaderRobotConstant           = "Robot"
	tableYesValueConstant              = "yes"
	tableNoValueConstant               = "no"
)

// renderReport writes the external-access findings in the requested format.
// Nothing is written when there are no findings.
func renderReport(outputWriter io.Writer, format ReportFormat, externalAccesses []snapshot.ExternalAccess) error {
	switch format {
	case ReportFormatText, ReportFormat(""):
		return renderTextReport(outputWriter, externalAccesses)
	case ReportFormatTable:
		if len(externalAccesses) > 0 {
			renderTableReport(outputWriter, externalAccesses)
		}
		return nil
	default:
		return fmt.Errorf(unsupportedFormatTemplateConstant, format)
	}
}

// renderTextReport prints one block per repository: the repository spec,
// then one "- name [role]" line per external user with a robot marker.
func renderTextReport(outputWriter io.Writer, externalAccesses []snapshot.ExternalAccess) error {
	for _, externalAccess := range externalAccesses {
		if _, writeError := fmt.Fprintln(outputWriter, externalAccess.Repository.Spec()); writeError != nil {
			return writeError
		}
		for _, externalUser := range externalAccess.Users {
			robotSuffix := ""
			if externalUser.IsRobot {
				robotSuffix = textReportRobotSuffixConstant
			}
			if _, writeError := fmt.Fprintf(outputWriter, textReportUserLineTemplateConstant, externalUser.Name, externalUser.Role, robotSuffix); writeError != nil {
				return writeError
			}
		}
		if _, writeError := fmt.Fprintln(outputWriter); writeError != nil {
			return writeError
		}
	}
	return nil
}

func renderTableReport(outputWriter io.Writer, externalAccesses []snapshot.ExternalAccess) {
	table := tablewriter.NewWriter(outputWriter)
	table.SetHeader([]string{
		tableHeaderRepositoryConstant,
		tableHeaderUserConstant,
		tableHeaderRoleConstant,
		tableHeaderRobotConstant,
	})

	for _, externalAccess := range externalAccesses {
		for _, externalUser := range externalAccess.Users {
			robotValue := tableNoValueConstant
			if externalUser.IsRobot {
				robotValue = tableYesValueConstant
			}
			table.Append([]string{
				externalAccess.Repository.Spec(),
				externalUser.Name,
				string(externalUser.Role),
				robotValue,
			})
		}
	}

	table.Render()
}
