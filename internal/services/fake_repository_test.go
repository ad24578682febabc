package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aptitude-pro/quiz-service/internal/models"
	"github.com/aptitude-pro/quiz-service/internal/repositories"
	"github.com/aptitude-pro/quiz-service/internal/storage"
	"gorm.io/gorm"
)

// fakeRepository is an in-memory Repository for service tests. It mirrors
// the storage invariants the real implementation gets from Postgres: one
// attempt and one answer per (student, question) pair.
type fakeRepository struct {
	mu sync.Mutex

	questions  map[uint]*models.Question
	attempts   map[string]*models.QuestionAttempt
	answers    map[string]*models.StudentAnswer
	members    map[string]*models.User
	meetLinks  map[uint]*models.MeetLink
	classroom  *models.Classroom
	config     *models.RosterConfig
	identities map[string]*models.User

	nextID uint
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		questions:  make(map[uint]*models.Question),
		attempts:   make(map[string]*models.QuestionAttempt),
		answers:    make(map[string]*models.StudentAnswer),
		members:    make(map[string]*models.User),
		meetLinks:  make(map[uint]*models.MeetLink),
		classroom:  &models.Classroom{ID: 1},
		config:     &models.RosterConfig{ID: 1, MaxMembers: 50},
		identities: make(map[string]*models.User),
	}
}

func pairKey(studentID string, questionID uint) string {
	return fmt.Sprintf("%s:%d", studentID, questionID)
}

func (f *fakeRepository) nextIDLocked() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeRepository) addUser(user *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identities[user.ID] = user
}

func (f *fakeRepository) addQuestion(q *models.Question) *models.Question {
	f.mu.Lock()
	defer f.mu.Unlock()
	if q.ID == 0 {
		q.ID = f.nextIDLocked()
	}
	f.questions[q.ID] = q
	return q
}

func (f *fakeRepository) Question() repositories.QuestionRepository   { return (*fakeQuestionRepo)(f) }
func (f *fakeRepository) Attempt() repositories.AttemptRepository     { return (*fakeAttemptRepo)(f) }
func (f *fakeRepository) Answer() repositories.AnswerRepository       { return (*fakeAnswerRepo)(f) }
func (f *fakeRepository) Classroom() repositories.ClassroomRepository { return (*fakeClassroomRepo)(f) }
func (f *fakeRepository) MeetLink() repositories.MeetLinkRepository   { return (*fakeMeetLinkRepo)(f) }
func (f *fakeRepository) Roster() repositories.RosterRepository       { return (*fakeRosterRepo)(f) }
func (f *fakeRepository) User() repositories.UserRepository           { return (*fakeUserRepo)(f) }

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(f)
}

func (f *fakeRepository) Ping(ctx context.Context) error { return nil }
func (f *fakeRepository) Close() error                   { return nil }

// ===== QUESTIONS =====

type fakeQuestionRepo fakeRepository

func (f *fakeQuestionRepo) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	question.ID = (*fakeRepository)(f).nextIDLocked()
	f.questions[question.ID] = question
	return nil
}

func (f *fakeQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return q, nil
}

func (f *fakeQuestionRepo) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	return f.GetByID(ctx, tx, id)
}

func (f *fakeQuestionRepo) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.questions[question.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.questions[question.ID] = question
	return nil
}

func (f *fakeQuestionRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.questions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.questions, id)
	for key, attempt := range f.attempts {
		if attempt.QuestionID == id {
			delete(f.attempts, key)
		}
	}
	for key, answer := range f.answers {
		if answer.QuestionID == id {
			delete(f.answers, key)
		}
	}
	return nil
}

func (f *fakeQuestionRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Question
	for _, q := range f.questions {
		if filters.Topic != nil && q.Topic != *filters.Topic {
			continue
		}
		out = append(out, q)
	}
	return out, int64(len(out)), nil
}

func (f *fakeQuestionRepo) GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	filters.CreatedBy = &creatorID
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Question
	for _, q := range f.questions {
		if q.CreatedBy == creatorID {
			out = append(out, q)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeQuestionRepo) GetByTopic(ctx context.Context, tx *gorm.DB, topic string, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	filters.Topic = &topic
	return f.List(ctx, tx, filters)
}

func (f *fakeQuestionRepo) Search(ctx context.Context, tx *gorm.DB, query string, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Question
	for _, q := range f.questions {
		if strings.Contains(strings.ToLower(q.Text), strings.ToLower(query)) {
			out = append(out, q)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeQuestionRepo) GetUnansweredByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Question
	for _, q := range f.questions {
		if _, answered := f.answers[pairKey(studentID, q.ID)]; !answered {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuestionRepo) GetAnsweredByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Question
	for _, q := range f.questions {
		if _, answered := f.answers[pairKey(studentID, q.ID)]; answered {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuestionRepo) GetQuestionStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.QuestionStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &repositories.QuestionStats{}
	for _, attempt := range f.attempts {
		if attempt.QuestionID == id {
			stats.AttemptCount++
		}
	}
	for _, answer := range f.answers {
		if answer.QuestionID != id {
			continue
		}
		stats.AnswerCount++
		if answer.IsCorrect != nil && *answer.IsCorrect {
			stats.CorrectCount++
		}
		if answer.IsExpired {
			stats.ExpiredCount++
		}
		if answer.FilePath != nil {
			stats.FileCount++
		}
	}
	if stats.AnswerCount > 0 {
		stats.CorrectRate = float64(stats.CorrectCount) / float64(stats.AnswerCount)
	}
	return stats, nil
}

func (f *fakeQuestionRepo) GetOptionBreakdown(ctx context.Context, tx *gorm.DB, id uint) (*repositories.OptionBreakdown, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	breakdown := &repositories.OptionBreakdown{Counts: make(map[models.OptionSymbol]int)}
	for _, answer := range f.answers {
		if answer.QuestionID != id || answer.SelectedOption == nil {
			continue
		}
		breakdown.Counts[*answer.SelectedOption]++
		breakdown.Total++
	}
	return breakdown, nil
}

func (f *fakeQuestionRepo) HasAnswers(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	count, err := (*fakeAnswerRepo)(f).CountByQuestion(ctx, tx, id)
	return count > 0, err
}

func (f *fakeQuestionRepo) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.questions[id]
	return ok, nil
}

// ===== ATTEMPTS =====

type fakeAttemptRepo fakeRepository

func (f *fakeAttemptRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, attempt *models.QuestionAttempt) (*models.QuestionAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pairKey(attempt.StudentID, attempt.QuestionID)
	if stored, ok := f.attempts[key]; ok {
		// Conflict path, the caller's struct keeps its zero ID
		return stored, nil
	}
	attempt.ID = (*fakeRepository)(f).nextIDLocked()
	stored := *attempt
	f.attempts[key] = &stored
	return &stored, nil
}

func (f *fakeAttemptRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuestionAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, attempt := range f.attempts {
		if attempt.ID == id {
			return attempt, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAttemptRepo) GetByStudentAndQuestion(ctx context.Context, tx *gorm.DB, studentID string, questionID uint) (*models.QuestionAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	attempt, ok := f.attempts[pairKey(studentID, questionID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return attempt, nil
}

func (f *fakeAttemptRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.QuestionAttempt, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.QuestionAttempt
	for _, attempt := range f.attempts {
		if filters.StudentID != nil && attempt.StudentID != *filters.StudentID {
			continue
		}
		if filters.QuestionID != nil && attempt.QuestionID != *filters.QuestionID {
			continue
		}
		out = append(out, attempt)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAttemptRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.AttemptFilters) ([]*models.QuestionAttempt, int64, error) {
	filters.StudentID = &studentID
	return f.List(ctx, tx, filters)
}

func (f *fakeAttemptRepo) GetByQuestion(ctx context.Context, tx *gorm.DB, questionID uint, filters repositories.AttemptFilters) ([]*models.QuestionAttempt, int64, error) {
	filters.QuestionID = &questionID
	return f.List(ctx, tx, filters)
}

func (f *fakeAttemptRepo) ExistsByStudentAndQuestion(ctx context.Context, tx *gorm.DB, studentID string, questionID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.attempts[pairKey(studentID, questionID)]
	return ok, nil
}

func (f *fakeAttemptRepo) CountByQuestion(ctx context.Context, tx *gorm.DB, questionID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, attempt := range f.attempts {
		if attempt.QuestionID == questionID {
			count++
		}
	}
	return count, nil
}

// ===== ANSWERS =====

type fakeAnswerRepo fakeRepository

func (f *fakeAnswerRepo) Create(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pairKey(answer.StudentID, answer.QuestionID)
	if _, ok := f.answers[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	answer.ID = (*fakeRepository)(f).nextIDLocked()
	f.answers[key] = answer
	return nil
}

func (f *fakeAnswerRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.StudentAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, answer := range f.answers {
		if answer.ID == id {
			return answer, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAnswerRepo) GetByStudentAndQuestion(ctx context.Context, tx *gorm.DB, studentID string, questionID uint) (*models.StudentAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	answer, ok := f.answers[pairKey(studentID, questionID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return answer, nil
}

func (f *fakeAnswerRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, answer := range f.answers {
		if answer.ID == id {
			delete(f.answers, key)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeAnswerRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.AnswerFilters) ([]*models.StudentAnswer, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.StudentAnswer
	for _, answer := range f.answers {
		if filters.StudentID != nil && answer.StudentID != *filters.StudentID {
			continue
		}
		if filters.QuestionID != nil && answer.QuestionID != *filters.QuestionID {
			continue
		}
		if filters.IsExpired != nil && answer.IsExpired != *filters.IsExpired {
			continue
		}
		out = append(out, answer)
	}
	return out, int64(len(out)), nil
}

func (f *fakeAnswerRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.AnswerFilters) ([]*models.StudentAnswer, int64, error) {
	filters.StudentID = &studentID
	return f.List(ctx, tx, filters)
}

func (f *fakeAnswerRepo) GetByQuestion(ctx context.Context, tx *gorm.DB, questionID uint, filters repositories.AnswerFilters) ([]*models.StudentAnswer, int64, error) {
	filters.QuestionID = &questionID
	return f.List(ctx, tx, filters)
}

func (f *fakeAnswerRepo) GetStudentProgress(ctx context.Context, tx *gorm.DB, studentID string) (*repositories.StudentProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	progress := &repositories.StudentProgress{TotalQuestions: len(f.questions)}
	for _, attempt := range f.attempts {
		if attempt.StudentID == studentID {
			progress.Started++
		}
	}
	for _, answer := range f.answers {
		if answer.StudentID != studentID {
			continue
		}
		progress.Answered++
		if answer.IsCorrect != nil && *answer.IsCorrect {
			progress.Correct++
		}
		if answer.IsExpired {
			progress.Expired++
		}
	}
	return progress, nil
}

func (f *fakeAnswerRepo) ExistsByStudentAndQuestion(ctx context.Context, tx *gorm.DB, studentID string, questionID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.answers[pairKey(studentID, questionID)]
	return ok, nil
}

func (f *fakeAnswerRepo) CountByQuestion(ctx context.Context, tx *gorm.DB, questionID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, answer := range f.answers {
		if answer.QuestionID == questionID {
			count++
		}
	}
	return count, nil
}

// ===== CLASSROOM =====

type fakeClassroomRepo fakeRepository

func (f *fakeClassroomRepo) Get(ctx context.Context, tx *gorm.DB) (*models.Classroom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.classroom, nil
}

func (f *fakeClassroomRepo) Update(ctx context.Context, tx *gorm.DB, classroom *models.Classroom) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classroom = classroom
	return nil
}

type fakeMeetLinkRepo fakeRepository

func (f *fakeMeetLinkRepo) Create(ctx context.Context, tx *gorm.DB, link *models.MeetLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	link.ID = (*fakeRepository)(f).nextIDLocked()
	f.meetLinks[link.ID] = link
	return nil
}

func (f *fakeMeetLinkRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.MeetLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	link, ok := f.meetLinks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return link, nil
}

func (f *fakeMeetLinkRepo) List(ctx context.Context, tx *gorm.DB, activeOnly bool) ([]*models.MeetLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.MeetLink
	for _, link := range f.meetLinks {
		if activeOnly && !link.IsActive {
			continue
		}
		out = append(out, link)
	}
	return out, nil
}

func (f *fakeMeetLinkRepo) Update(ctx context.Context, tx *gorm.DB, link *models.MeetLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.meetLinks[link.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.meetLinks[link.ID] = link
	return nil
}

func (f *fakeMeetLinkRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.meetLinks[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.meetLinks, id)
	return nil
}

// ===== ROSTER =====

type fakeRosterRepo fakeRepository

func (f *fakeRosterRepo) AddMember(ctx context.Context, tx *gorm.DB, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.members[user.ID]; ok {
		return gorm.ErrDuplicatedKey
	}
	f.members[user.ID] = user
	return nil
}

func (f *fakeRosterRepo) RemoveMember(ctx context.Context, tx *gorm.DB, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.members[userID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.members, userID)
	return nil
}

func (f *fakeRosterRepo) GetMember(ctx context.Context, tx *gorm.DB, userID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	member, ok := f.members[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return member, nil
}

func (f *fakeRosterRepo) ListMembers(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, member := range f.members {
		out = append(out, member)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRosterRepo) CountMembers(ctx context.Context, tx *gorm.DB) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.members)), nil
}

func (f *fakeRosterRepo) IsMember(ctx context.Context, tx *gorm.DB, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.members[userID]
	return ok, nil
}

func (f *fakeRosterRepo) GetConfig(ctx context.Context, tx *gorm.DB) (*models.RosterConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.config, nil
}

func (f *fakeRosterRepo) UpdateConfig(ctx context.Context, tx *gorm.DB, config *models.RosterConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.config = config
	return nil
}

func (f *fakeRosterRepo) GetStats(ctx context.Context, tx *gorm.DB) (*repositories.RosterStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &repositories.RosterStats{
		MemberCount: len(f.members),
		MaxMembers:  f.config.MaxMembers,
	}, nil
}

// ===== USERS =====

type fakeUserRepo fakeRepository

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.identities[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.identities {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if user, ok := f.identities[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, user := range f.identities {
		if filters.Role != nil && user.Role != *filters.Role {
			continue
		}
		out = append(out, user)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) Search(ctx context.Context, query string, filters repositories.UserFilters) ([]*models.User, int64, error) {
	filters.Query = query
	return f.List(ctx, filters)
}

func (f *fakeUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.identities[id]
	return ok, nil
}

func (f *fakeUserRepo) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.identities[id]
	if !ok {
		return false, nil
	}
	return user.Role == role, nil
}

// ===== FILE STORE =====

// fakeFileStore keeps uploads in memory and records removals
type fakeFileStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	removed []string
	deny    bool
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: make(map[string][]byte)}
}

func (s *fakeFileStore) Save(ctx context.Context, studentID, filename string, r io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deny {
		return "", storage.ErrDisallowedExtension
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	key := studentID + "/" + filename
	s.files[key] = data
	return key, nil
}

func (s *fakeFileStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[key]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeFileStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
	s.removed = append(s.removed, key)
	return nil
}
