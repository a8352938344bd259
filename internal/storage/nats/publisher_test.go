package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"txScope/internal/model"
)

type published struct {
	subject string
	data    []byte
}

type fakeJetStream struct {
	sent []published
	fail map[string]bool
}

func (f *fakeJetStream) Publish(_ context.Context, subject string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	var rec model.TransactionRecord
	_ = json.Unmarshal(data, &rec)
	if f.fail[rec.TxHash] {
		return nil, errors.New("no responders")
	}
	f.sent = append(f.sent, published{subject: subject, data: data})
	return &jetstream.PubAck{Stream: StreamName}, nil
}

func TestPutBatchSubjects(t *testing.T) {
	js := &fakeJetStream{}
	p := &Publisher{js: js, prefix: "txscope.tx", logger: zap.NewNop()}

	err := p.PutBatch(context.Background(), []model.TransactionRecord{
		{TxHash: "A", EventType: model.TagBBLSale},
		{TxHash: "B", EventType: model.TagAllianceClaim},
	})
	require.NoError(t, err)
	require.Len(t, js.sent, 2)
	assert.Equal(t, "txscope.tx.bbl_sale", js.sent[0].subject)
	assert.Equal(t, "txscope.tx.alliance_claim", js.sent[1].subject)
	assert.Contains(t, string(js.sent[0].data), `"tx_hash":"A"`)
}

func TestPutBatchContinuesOnFailure(t *testing.T) {
	js := &fakeJetStream{fail: map[string]bool{"A": true}}
	p := &Publisher{js: js, prefix: "txscope.tx", logger: zap.NewNop()}

	err := p.PutBatch(context.Background(), []model.TransactionRecord{
		{TxHash: "A", EventType: model.TagBBLSale},
		{TxHash: "B", EventType: model.TagBBLSale},
	})
	assert.EqualError(t, err, "publish: 1 of 2 records failed")
	assert.Len(t, js.sent, 1)
}

func TestNewPublisherValidation(t *testing.T) {
	_, err := NewPublisher(context.Background(), "", "txscope", nil)
	assert.EqualError(t, err, "nats url is required")
	_, err = NewPublisher(context.Background(), "nats://127.0.0.1:1", "..", nil)
	assert.EqualError(t, err, "nats subject prefix is required")
}
