package importer

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aclindsa/ofxgo"
)

// ImportOFX imports transactions from an OFX/QFX statement file. Statement
// transactions are converted to the same raw row stream as CSV data and run
// through the identical validation, staging, and commit path; they carry no
// category column, so every imported row is uncategorized.
func (p *Pipeline) ImportOFX(ctx context.Context, r io.Reader) (*Report, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX payload: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(strings.TrimLeft(string(content), " \t\r\n")))
	if err != nil {
		return abortReport(fmt.Sprintf("decoding error: not a valid OFX file: %v", err)), nil
	}

	var rows []Row
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			rows = appendStatementRows(rows, stmt.BankTranList)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			rows = appendStatementRows(rows, stmt.BankTranList)
		}
	}

	if len(rows) == 0 {
		return abortReport(msgEmptyPayload), nil
	}

	return p.runBatch(ctx, rows)
}

func appendStatementRows(rows []Row, list *ofxgo.TransactionList) []Row {
	if list == nil {
		return rows
	}

	for _, ofxTx := range list.Transactions {
		// OFX uses negative amounts for debits; the ledger records spending
		// as positive and refunds as negative.
		amount, _ := ofxTx.TrnAmt.Float64()
		rows = append(rows, Row{
			Line:        len(rows) + 1,
			Date:        ofxTx.DtPosted.Time.Format("2006-01-02"),
			Description: statementDescription(ofxTx),
			Amount:      strconv.FormatFloat(-amount, 'f', -1, 64),
		})
	}
	return rows
}

// statementDescription prefers the payee name, then the transaction name,
// then the memo.
func statementDescription(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}
	if name := strings.TrimSpace(string(tx.Name)); name != "" {
		return name
	}
	return strings.TrimSpace(string(tx.Memo))
}
