package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/agenthands/consistencyguard/internal/config"
)

var (
	ortInitMu sync.Mutex

	onnxInputNames  = []string{"input_ids", "attention_mask", "token_type_ids"}
	onnxOutputNames = []string{"last_hidden_state"}
)

// ONNXProvider runs a sentence-transformer exported to ONNX (all-MiniLM-L6-v2
// by default) and returns mean-pooled, L2-normalized sentence vectors.
type ONNXProvider struct {
	mu        sync.Mutex
	tk        *tokenizer.Tokenizer
	session   *ort.DynamicAdvancedSession
	maxSeqLen int
	dim       int
}

func NewONNXProvider(cfg config.EmbeddingConfig) (*ONNXProvider, error) {
	if err := initORT(cfg.OrtLibrary); err != nil {
		return nil, err
	}

	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", cfg.TokenizerPath, err)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, onnxInputNames, onnxOutputNames, nil)
	if err != nil {
		return nil, fmt.Errorf("create onnx session %s: %w", cfg.ModelPath, err)
	}

	maxSeqLen := cfg.MaxSeqLen
	if maxSeqLen <= 0 {
		maxSeqLen = 256
	}
	dim := cfg.Dimensions
	if dim <= 0 {
		dim = 384
	}

	return &ONNXProvider{
		tk:        tk,
		session:   session,
		maxSeqLen: maxSeqLen,
		dim:       dim,
	}, nil
}

func initORT(library string) error {
	ortInitMu.Lock()
	defer ortInitMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if library != "" {
		ort.SetSharedLibraryPath(library)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return nil
}

func (p *ONNXProvider) Encode(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil, errors.New("onnx provider is closed")
	}

	enc, err := p.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}

	tokIDs, tokMask, tokTypes := truncateEncoding(enc.Ids, enc.AttentionMask, enc.TypeIds, p.maxSeqLen)
	n := len(tokIDs)
	if n == 0 {
		return make([]float32, p.dim), nil
	}
	ids := toInt64(tokIDs)
	mask := toInt64(tokMask)
	types := make([]int64, n)
	if len(tokTypes) == n {
		types = toInt64(tokTypes)
	}

	shape := ort.NewShape(1, int64(n))
	idsT, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, err
	}
	defer idsT.Destroy()
	maskT, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, err
	}
	defer maskT.Destroy()
	typesT, err := ort.NewTensor(shape, types)
	if err != nil {
		return nil, err
	}
	defer typesT.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(n), int64(p.dim)))
	if err != nil {
		return nil, err
	}
	defer out.Destroy()

	if err := p.session.Run([]ort.Value{idsT, maskT, typesT}, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	return meanPool(out.GetData(), mask, p.dim), nil
}

// meanPool averages token states under the attention mask and L2-normalizes.
func meanPool(hidden []float32, mask []int64, dim int) []float32 {
	vec := make([]float32, dim)
	var count float32
	for t, m := range mask {
		if m == 0 {
			continue
		}
		row := hidden[t*dim : (t+1)*dim]
		for j, x := range row {
			vec[j] += x
		}
		count++
	}
	if count == 0 {
		return vec
	}
	var norm float64
	for j := range vec {
		vec[j] /= count
		norm += float64(vec[j]) * float64(vec[j])
	}
	if norm == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(norm))
	for j := range vec {
		vec[j] *= inv
	}
	return vec
}

func toInt64(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

func (p *ONNXProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	err := p.session.Destroy()
	p.session = nil
	return err
}

// truncateEncoding cuts an encoding that already carries [CLS] ... [SEP] to
// maxLen tokens, keeping the trailing [SEP] the model was trained with.
func truncateEncoding(ids, mask, types []int, maxLen int) ([]int, []int, []int) {
	n := len(ids)
	if n <= maxLen {
		return ids, mask, types
	}
	if maxLen < 2 {
		return ids[:maxLen], cut(mask, maxLen), cut(types, maxLen)
	}
	keep := func(s []int) []int {
		if len(s) != n {
			return nil
		}
		out := make([]int, maxLen)
		copy(out, s[:maxLen-1])
		out[maxLen-1] = s[n-1]
		return out
	}
	return keep(ids), keep(mask), keep(types)
}

func cut(s []int, n int) []int {
	if len(s) < n {
		return nil
	}
	return s[:n]
}
