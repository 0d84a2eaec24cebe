package services

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"paymordomo/apperr"
	"paymordomo/format"
	"paymordomo/models"
	"paymordomo/objstore"
	"paymordomo/store"
)

type TransactionInput struct {
	Description string  `json:"description" validate:"notblank,max=200"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Type        string  `json:"type" validate:"tx_type"`
	Category    string  `json:"category" validate:"tx_category"`
	Payee       string  `json:"payee" validate:"max=120"`
	Date        string  `json:"date" validate:"omitempty,datestr"`
}

// TransactionFilter narrows a listing. Empty or "all" means no filter.
type TransactionFilter struct {
	Type     string
	Category string
}

type Totals struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Balance  float64 `json:"balance"`
}

type TransactionList struct {
	Items  []models.Transaction `json:"items"`
	Totals Totals               `json:"totals"`
}

type TransactionService struct {
	Rows    store.Rows
	Badges  BadgeSyncer
	Objects objstore.Store
	Log     *zap.Logger
	Now     func() time.Time
}

func NewTransactionService(rows store.Rows, badges BadgeSyncer, objects objstore.Store, log *zap.Logger) *TransactionService {
	return &TransactionService{Rows: rows, Badges: badges, Objects: objects, Log: orNop(log), Now: time.Now}
}

func TotalsOf(txs []models.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		if tx.Type == models.TransactionIncome {
			t.Income += tx.Amount
		} else {
			t.Expenses += tx.Amount
		}
	}
	t.Balance = t.Income - t.Expenses
	return t
}

func wanted(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != "all"
}

// List returns the user's transactions, newest first, with totals over the
// filtered set. Category matching ignores case and accents.
func (s *TransactionService) List(ctx context.Context, userID string, f TransactionFilter) (TransactionList, error) {
	filter := store.ByUser(userID)
	if wanted(f.Type) {
		filter = filter.With("type", f.Type)
	}
	var all []models.Transaction
	if err := s.Rows.Select(ctx, store.TableTransactions, filter, &all, store.OrderBy("date", true), store.OrderBy("created_at", true)); err != nil {
		return TransactionList{}, err
	}

	items := all
	if wanted(f.Category) {
		items = make([]models.Transaction, 0, len(all))
		for _, tx := range all {
			if foldEqual(tx.Category, f.Category) {
				items = append(items, tx)
			}
		}
	}
	return TransactionList{Items: items, Totals: TotalsOf(items)}, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.Rows.SelectOne(ctx, store.TableTransactions, store.ByUser(userID).With("id", id), &tx); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.NotFound("Transação não encontrada")
		}
		return nil, err
	}
	return &tx, nil
}

func (s *TransactionService) Create(ctx context.Context, userID string, in TransactionInput) (*models.Transaction, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	tx := &models.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Type:        models.TransactionType(in.Type),
		Category:    in.Category,
		Payee:       strings.TrimSpace(in.Payee),
		Date:        parseDate(in.Date, s.Now()),
	}
	if err := s.Rows.Insert(ctx, store.TableTransactions, tx); err != nil {
		return nil, err
	}
	s.Log.Info("transaction created", zap.String("user_id", userID), zap.String("id", tx.ID), zap.String("type", in.Type))
	syncBadges(ctx, s.Badges, s.Log, userID)
	return tx, nil
}

func (s *TransactionService) Update(ctx context.Context, userID, id string, in TransactionInput) (*models.Transaction, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	n, err := s.Rows.Update(ctx, store.TableTransactions, store.ByUser(userID).With("id", id), map[string]any{
		"description": strings.TrimSpace(in.Description),
		"amount":      in.Amount,
		"type":        in.Type,
		"category":    in.Category,
		"payee":       strings.TrimSpace(in.Payee),
		"date":        parseDate(in.Date, s.Now()),
	})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperr.NotFound("Transação não encontrada")
	}
	syncBadges(ctx, s.Badges, s.Log, userID)
	return s.Get(ctx, userID, id)
}

// Delete removes the transaction and its receipt, if any.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	tx, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if _, err := s.Rows.Delete(ctx, store.TableTransactions, store.ByUser(userID), id); err != nil {
		return err
	}
	if tx.ReceiptKey != "" && s.Objects != nil {
		if err := s.Objects.Delete(ctx, tx.ReceiptKey); err != nil {
			s.Log.Warn("receipt delete failed", zap.String("key", tx.ReceiptKey), zap.Error(err))
		}
	}
	s.Log.Info("transaction deleted", zap.String("user_id", userID), zap.String("id", id))
	syncBadges(ctx, s.Badges, s.Log, userID)
	return nil
}

var csvHeader = []string{"Descrição", "Valor", "Tipo", "Categoria", "Pagador/Recebedor", "Data"}

// ExportCSV writes the filtered listing as CSV. Amounts use a dot decimal
// separator and dates are dd/mm/yyyy.
func (s *TransactionService) ExportCSV(ctx context.Context, userID string, f TransactionFilter, w io.Writer) error {
	list, err := s.List(ctx, userID, f)
	if err != nil {
		return err
	}
	return WriteTransactionsCSV(w, list.Items)
}

func WriteTransactionsCSV(w io.Writer, txs []models.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, tx := range txs {
		if err := cw.Write([]string{
			tx.Description,
			strconv.FormatFloat(tx.Amount, 'f', 2, 64),
			string(tx.Type),
			tx.Category,
			tx.Payee,
			format.Date(tx.Date),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// AttachReceipt stores a receipt file and links it to the transaction,
// replacing any previous one. Returns the public URL.
func (s *TransactionService) AttachReceipt(ctx context.Context, userID, id, filename, contentType string, body io.Reader) (string, error) {
	if s.Objects == nil {
		return "", apperr.Store("Armazenamento de comprovantes indisponível", nil)
	}
	tx, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", err
	}
	key := objstore.ReceiptKey(userID, id, filename)
	if err := s.Objects.Put(ctx, key, body, contentType); err != nil {
		return "", apperr.Store("Erro ao enviar comprovante", err)
	}
	if _, err := s.Rows.Update(ctx, store.TableTransactions, store.ByUser(userID).With("id", id), map[string]any{"receipt_key": key}); err != nil {
		return "", err
	}
	if tx.ReceiptKey != "" && tx.ReceiptKey != key {
		if err := s.Objects.Delete(ctx, tx.ReceiptKey); err != nil {
			s.Log.Warn("old receipt delete failed", zap.String("key", tx.ReceiptKey), zap.Error(err))
		}
	}
	return s.Objects.URL(key), nil
}

func (s *TransactionService) Receipt(ctx context.Context, userID, id string) (io.ReadCloser, string, error) {
	if s.Objects == nil {
		return nil, "", apperr.NotFound("Comprovante não encontrado")
	}
	tx, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}
	if tx.ReceiptKey == "" {
		return nil, "", apperr.NotFound("Comprovante não encontrado")
	}
	rc, ct, err := s.Objects.Get(ctx, tx.ReceiptKey)
	if errors.Is(err, objstore.ErrNotFound) {
		return nil, "", apperr.NotFound("Comprovante não encontrado")
	}
	if err != nil {
		return nil, "", apperr.Store("Erro ao baixar comprovante", err)
	}
	return rc, ct, nil
}
