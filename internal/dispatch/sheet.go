package dispatch

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/chatlead/internal/model"
	"github.com/sells-group/chatlead/internal/settings"
)

const sheetName = "Leads"

var sheetHeader = []string{
	"ID", "Name", "Company", "Phone", "Email", "Product",
	"Score", "Hot", "Enterprise", "Followup",
	"Date", "Messages", "Summary",
}

// SheetAdapter appends leads to an XLSX workbook. Writes are serialized
// because dispatches for different leads may run concurrently.
type SheetAdapter struct {
	path string
	mu   sync.Mutex
}

// NewSheetAdapter creates the spreadsheet sync adapter.
func NewSheetAdapter(path string) *SheetAdapter {
	return &SheetAdapter{path: path}
}

func (a *SheetAdapter) Name() string { return "sheet" }

func (a *SheetAdapter) LiveSyncEnabled(s *settings.Settings) bool {
	return s != nil && s.Sync.Sheet
}

func (a *SheetAdapter) Sync(ctx context.Context, lead *model.Lead) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "sheet: cancelled")
	}

	file, sheet, err := a.open()
	if err != nil {
		return err
	}

	row := sheet.AddRow()
	for _, v := range []string{
		lead.ID, lead.Name, lead.Company, lead.Phone, lead.Email, lead.Product,
		strconv.Itoa(lead.LeadScore),
		strconv.FormatBool(lead.HotLead),
		strconv.FormatBool(lead.Enterprise),
		strconv.FormatBool(lead.ImmediateFollowup),
		lead.ConversationDate,
		strconv.Itoa(lead.TotalMessages),
		lead.Summary,
	} {
		row.AddCell().SetString(v)
	}

	if err := file.Save(a.path); err != nil {
		return eris.Wrapf(err, "sheet: save %s", a.path)
	}
	return nil
}

// open loads the workbook, creating it with a header row on first use.
func (a *SheetAdapter) open() (*xlsx.File, *xlsx.Sheet, error) {
	if _, err := os.Stat(a.path); os.IsNotExist(err) {
		file := xlsx.NewFile()
		sheet, err := file.AddSheet(sheetName)
		if err != nil {
			return nil, nil, eris.Wrap(err, "sheet: add sheet")
		}
		header := sheet.AddRow()
		for _, h := range sheetHeader {
			header.AddCell().SetString(h)
		}
		return file, sheet, nil
	}

	file, err := xlsx.OpenFile(a.path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "sheet: open %s", a.path)
	}
	for _, sheet := range file.Sheets {
		if strings.EqualFold(sheet.Name, sheetName) {
			return file, sheet, nil
		}
	}
	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return nil, nil, eris.Wrap(err, "sheet: add sheet")
	}
	return file, sheet, nil
}
