package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestCSVLedger(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.csv")
	l := NewCSVLedger(path)

	if _, ok, err := l.LastIssued(ctx); err != nil || ok {
		t.Fatalf("empty ledger: ok=%v err=%v, want ok=false", ok, err)
	}
	next, err := NextStart(ctx, l, 6000)
	if err != nil || next != 6000 {
		t.Fatalf("NextStart on empty ledger = %d, %v; want 6000", next, err)
	}

	created := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	for _, b := range []IssuedBatch{
		{Start: 0, End: 999, Sheets: 1, Output: "a.xlsx", CreatedAt: created},
		{Start: 1000, End: 1249, Sheets: 3, Output: "b.xlsx", CreatedAt: created},
	} {
		if err := l.Record(ctx, b); err != nil {
			t.Fatalf("Record error: %v", err)
		}
	}

	last, ok, err := l.LastIssued(ctx)
	if err != nil || !ok || last != 1249 {
		t.Fatalf("LastIssued = %d, %v, %v; want 1249", last, ok, err)
	}
	if next, _ := NextStart(ctx, l, 0); next != 1250 {
		t.Errorf("NextStart = %d, want 1250", next)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("ledger has %d lines, want 3:\n%s", len(lines), data)
	}
	if lines[0] != "start,end,sheets,output,created_at" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[2] != "1000,1249,3,b.xlsx,2024-03-15T08:00:00Z" {
		t.Errorf("second batch = %q", lines[2])
	}
}

func TestCSVLedger_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	if err := os.WriteFile(path, []byte("start,end\n0,oops\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := NewCSVLedger(path).LastIssued(context.Background()); err == nil {
		t.Fatal("expected error for corrupt ledger")
	}
}

func TestSQLPlaceholders(t *testing.T) {
	if got := placeholders("postgres", 3); got != "$1, $2, $3" {
		t.Errorf("postgres placeholders = %q", got)
	}
	if got := placeholders("mysql", 3); got != "?, ?, ?" {
		t.Errorf("mysql placeholders = %q", got)
	}
}

func TestNewSQLLedger_RejectsBadTable(t *testing.T) {
	if _, err := NewSQLLedger(nil, "mysql", "batches; DROP TABLE x"); err == nil {
		t.Fatal("expected error for unsafe table name")
	}
	if _, err := NewSQLLedger(nil, "postgres", "label_batches"); err != nil {
		t.Fatalf("valid table rejected: %v", err)
	}
}

type MockDynamoDBClient struct {
	ScanFunc    func(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItemFunc func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

func (m *MockDynamoDBClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return m.ScanFunc(ctx, params, optFns...)
}

func (m *MockDynamoDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return m.PutItemFunc(ctx, params, optFns...)
}

func TestDynamoDBLedger_LastIssued(t *testing.T) {
	pages := [][]map[string]types.AttributeValue{
		{
			{"end_code": &types.AttributeValueMemberN{Value: "999"}},
			{"end_code": &types.AttributeValueMemberN{Value: "2999"}},
		},
		{
			{"end_code": &types.AttributeValueMemberN{Value: "1999"}},
		},
	}
	call := 0
	mockClient := &MockDynamoDBClient{
		ScanFunc: func(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
			if *params.TableName != "label_batches" {
				t.Errorf("TableName = %v, want label_batches", *params.TableName)
			}
			if params.ExpressionAttributeNames["#e"] != "end_code" {
				t.Errorf("projection does not name end_code: %v", params.ExpressionAttributeNames)
			}
			out := &dynamodb.ScanOutput{Items: pages[call]}
			if call == 0 {
				out.LastEvaluatedKey = map[string]types.AttributeValue{
					"batch_id": &types.AttributeValueMemberS{Value: "cursor"},
				}
			}
			call++
			return out, nil
		},
	}

	l := &DynamoDBLedger{Client: mockClient, Table: "label_batches"}
	last, ok, err := l.LastIssued(context.Background())
	if err != nil {
		t.Fatalf("LastIssued error: %v", err)
	}
	if !ok || last != 2999 {
		t.Errorf("LastIssued = %d, %v; want 2999, true", last, ok)
	}
	if call != 2 {
		t.Errorf("scan calls = %d, want 2", call)
	}
}

func TestDynamoDBLedger_Record(t *testing.T) {
	var got map[string]types.AttributeValue
	mockClient := &MockDynamoDBClient{
		PutItemFunc: func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			got = params.Item
			return &dynamodb.PutItemOutput{}, nil
		},
	}

	l := &DynamoDBLedger{Client: mockClient, Table: "label_batches"}
	err := l.Record(context.Background(), IssuedBatch{
		Start: 0, End: 999, Sheets: 1, Output: "barcodes.xlsx",
		CreatedAt: time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}

	id, ok := got["batch_id"].(*types.AttributeValueMemberS)
	if !ok || id.Value != "0-999@2024-03-15T08:00:00Z" {
		t.Errorf("batch_id = %#v", got["batch_id"])
	}
	end, ok := got["end_code"].(*types.AttributeValueMemberN)
	if !ok || end.Value != "999" {
		t.Errorf("end_code = %#v", got["end_code"])
	}
}
