package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/SAP-F-2025/learning-progress-service/internal/models"
	"github.com/SAP-F-2025/learning-progress-service/internal/repositories"
	"github.com/SAP-F-2025/learning-progress-service/internal/validator"
	"github.com/xuri/excelize/v2"
)

// ImportService bulk-loads quiz questions into a lesson from spreadsheet files
// and exports attempt results. Imported questions append to the end of the
// lesson's question order.
type ImportService interface {
	ImportQuestionsFromFile(ctx context.Context, file multipart.File, filename string, lessonID uint, actorID uint, isAdmin bool) (*ImportResult, error)
	ImportQuestionsFromCSV(ctx context.Context, reader io.Reader, lessonID uint, actorID uint, isAdmin bool) (*ImportResult, error)
	ImportQuestionsFromExcel(ctx context.Context, reader io.Reader, lessonID uint, actorID uint, isAdmin bool) (*ImportResult, error)

	ExportLessonResults(ctx context.Context, lessonID uint, actorID uint, isAdmin bool) ([]byte, error)
}

// ImportRowError describes one rejected spreadsheet row.
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

type ImportResult struct {
	TotalRows    int                    `json:"total_rows"`
	SuccessCount int                    `json:"success_count"`
	ErrorCount   int                    `json:"error_count"`
	Errors       []ImportRowError       `json:"errors,omitempty"`
	Questions    []*models.QuizQuestion `json:"questions,omitempty"`
}

// Option columns supported per row; correct_answers references them by letter.
var optionColumns = []string{"option_a", "option_b", "option_c", "option_d", "option_e", "option_f"}

type importService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewImportService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) ImportService {
	return &importService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

// ===== IMPORT OPERATIONS =====

func (s *importService) ImportQuestionsFromFile(ctx context.Context, file multipart.File, filename string, lessonID uint, actorID uint, isAdmin bool) (*ImportResult, error) {
	s.logger.Info("Starting question import", "filename", filename, "lesson_id", lessonID, "actor_id", actorID)

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		return s.ImportQuestionsFromCSV(ctx, file, lessonID, actorID, isAdmin)
	case ".xlsx", ".xls":
		return s.ImportQuestionsFromExcel(ctx, file, lessonID, actorID, isAdmin)
	default:
		return nil, NewValidationError("file", "unsupported file format", ext)
	}
}

func (s *importService) ImportQuestionsFromCSV(ctx context.Context, reader io.Reader, lessonID uint, actorID uint, isAdmin bool) (*ImportResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	return s.importRows(ctx, records, lessonID, actorID, isAdmin)
}

func (s *importService) ImportQuestionsFromExcel(ctx context.Context, reader io.Reader, lessonID uint, actorID uint, isAdmin bool) (*ImportResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "Excel file has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}

	return s.importRows(ctx, rows, lessonID, actorID, isAdmin)
}

// importRows is the shared pipeline behind both file formats: parse every data
// row, collect per-row errors, and append the valid questions to the lesson's
// question order in one transaction.
func (s *importService) importRows(ctx context.Context, rows [][]string, lessonID uint, actorID uint, isAdmin bool) (*ImportResult, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if lesson.Type != models.LessonQuiz {
		return nil, ErrLessonNotQuiz
	}
	if err := s.ensureLessonAccess(ctx, lessonID, actorID, isAdmin); err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, NewValidationError("file", "file must have a header row and at least one data row", len(rows))
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range []string{"question_type", "question_text", "correct_answers"} {
		if _, exists := headerMap[col]; !exists {
			return nil, NewValidationError("headers", fmt.Sprintf("missing required column: %s", col), col)
		}
	}

	result := &ImportResult{TotalRows: len(rows) - 1}
	var questions []*models.QuizQuestion

	for rowIndex, row := range rows[1:] {
		question, rowErrors := s.parseRow(row, headerMap, rowIndex+2, lessonID)
		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			result.ErrorCount++
			continue
		}
		questions = append(questions, question)
		result.SuccessCount++
	}

	if len(questions) > 0 {
		err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
			siblings, err := txRepo.Question().GetSiblings(ctx, lessonID)
			if err != nil {
				return fmt.Errorf("failed to get sibling questions: %w", err)
			}
			group := questionGroup(siblings)
			next := NextOrderIndex(group)
			for _, question := range questions {
				question.OrderIndex = next
				next++
				if err := txRepo.Question().Create(ctx, question); err != nil {
					return fmt.Errorf("failed to create question: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	result.Questions = questions
	s.logger.Info("Question import completed",
		"lesson_id", lessonID,
		"total_rows", result.TotalRows,
		"success_count", result.SuccessCount,
		"error_count", result.ErrorCount)

	return result, nil
}

// parseRow builds one question from a spreadsheet row. correct_answers holds
// option letters separated by commas or semicolons, e.g. "A;C".
func (s *importService) parseRow(row []string, headerMap map[string]int, rowNum int, lessonID uint) (*models.QuizQuestion, []ImportRowError) {
	var errors []ImportRowError

	getColumn := func(name string) string {
		if index, exists := headerMap[name]; exists && index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	questionType, err := models.ParseQuestionType(getColumn("question_type"))
	if err != nil {
		errors = append(errors, ImportRowError{
			Row: rowNum, Column: "question_type", Message: "must be SingleChoice or MultipleChoice", Value: getColumn("question_type"),
		})
		return nil, errors
	}

	text := getColumn("question_text")
	if text == "" {
		errors = append(errors, ImportRowError{
			Row: rowNum, Column: "question_text", Message: "required field",
		})
		return nil, errors
	}

	correctLetters := make(map[string]bool)
	for _, letter := range strings.FieldsFunc(getColumn("correct_answers"), func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		correctLetters[strings.ToUpper(strings.TrimSpace(letter))] = true
	}

	question := &models.QuizQuestion{
		LessonID: lessonID,
		Text:     text,
		Type:     questionType,
	}
	for i, column := range optionColumns {
		optionText := getColumn(column)
		if optionText == "" {
			continue
		}
		letter := string(rune('A' + i))
		question.Options = append(question.Options, models.QuizOption{
			Text:      optionText,
			IsCorrect: correctLetters[letter],
		})
	}

	if err := s.validator.Question().ValidateOptionSet(questionType, question.Options); err != nil {
		errors = append(errors, ImportRowError{
			Row: rowNum, Column: "options", Message: err.Error(),
		})
		return nil, errors
	}

	return question, nil
}

// ===== EXPORT OPERATIONS =====

func (s *importService) ExportLessonResults(ctx context.Context, lessonID uint, actorID uint, isAdmin bool) ([]byte, error) {
	if _, err := s.repo.Lesson().GetByID(ctx, lessonID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}
	if err := s.ensureLessonAccess(ctx, lessonID, actorID, isAdmin); err != nil {
		return nil, err
	}

	attempts, _, err := s.repo.Attempt().List(ctx, repositories.AttemptFilters{LessonID: &lessonID})
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson attempts: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"User ID", "Attempt ID", "Score", "Total Questions", "Percentage", "Result", "Started At", "Submitted At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, attempt := range attempts {
		verdict := "Fail"
		if attempt.Passed {
			verdict = "Pass"
		}
		row := []interface{}{
			attempt.UserID,
			attempt.ID,
			attempt.Score,
			attempt.TotalQuestions,
			progressPercentage(attempt.Score, attempt.TotalQuestions),
			verdict,
			attempt.StartedAt.Format("2006-01-02 15:04:05"),
			attempt.SubmittedAt.Format("2006-01-02 15:04:05"),
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

// ===== HELPERS =====

func (s *importService) ensureLessonAccess(ctx context.Context, lessonID, actorID uint, isAdmin bool) error {
	if isAdmin {
		return nil
	}
	courseID, err := s.repo.Lesson().CourseID(ctx, lessonID)
	if err != nil {
		return fmt.Errorf("failed to resolve lesson course: %w", err)
	}
	owner, err := s.repo.Course().IsOwner(ctx, courseID, actorID)
	if err != nil {
		return fmt.Errorf("failed to check course ownership: %w", err)
	}
	if !owner {
		return NewPermissionError(actorID, lessonID, "lesson", "import_questions", "requires course owner or admin")
	}
	return nil
}
