package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// --- users ---

const userColumns = `id, display_name, email, password_hash, account_type, is_email_verified,
	verification_token, verification_expires_at, deactivated_at, created_at, updated_at`

func scanUser(row *sql.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash,
		&user.AccountType, &user.IsEmailVerified, &user.VerificationToken,
		&user.VerificationExpiresAt, &user.DeactivatedAt, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name, email, password_hash, account_type, verification_token, verification_expires_at)
		VALUES ($1, $2, LOWER($3), $4, $5, $6, $7)
	`, user.ID, user.DisplayName, user.Email, user.PasswordHash, user.AccountType, user.VerificationToken, user.VerificationExpiresAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	return scanUser(row)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=LOWER($1)`, email)
	return scanUser(row)
}

func (s *PostgresStore) GetUserByVerificationToken(ctx context.Context, token string) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE verification_token=$1 AND verification_expires_at > NOW()
	`, token)
	return scanUser(row)
}

func (s *PostgresStore) MarkEmailVerified(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET is_email_verified=TRUE, verification_token='', verification_expires_at=NULL, updated_at=NOW()
		WHERE id=$1
	`, userID)
	if err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateAccountType(ctx context.Context, userID, accountType string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET account_type=$2, updated_at=NOW() WHERE id=$1
	`, userID, accountType)
	if err != nil {
		return fmt.Errorf("update account type: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1
	`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// --- password resets ---

func (s *PostgresStore) CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_resets (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("insert password reset: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPasswordReset(ctx context.Context, token string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id FROM password_resets
		WHERE token=$1 AND used_at IS NULL AND expires_at > NOW()
	`, token).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get password reset: %w", err)
	}
	return userID, nil
}

func (s *PostgresStore) MarkPasswordResetUsed(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE password_resets SET used_at=NOW() WHERE token=$1`, token)
	if err != nil {
		return fmt.Errorf("mark password reset used: %w", err)
	}
	return nil
}

// --- refresh sessions and token revocation ---

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash string, user User, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, user.ID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	const query = `
		SELECT u.id, u.display_name, u.account_type
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
			AND u.deactivated_at IS NULL
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(&user.ID, &user.DisplayName, &user.AccountType)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup refresh session: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// --- cases ---

const caseColumns = `id, owner_id, first_name, last_name, case_type, status, summary,
	subdomain, custom_domain, primary_photo, template_id, deployment_status, site_url,
	created_at, updated_at`

func scanCase(scan func(dest ...any) error) (Case, error) {
	var item Case
	err := scan(&item.ID, &item.OwnerID, &item.FirstName, &item.LastName, &item.CaseType,
		&item.Status, &item.Summary, &item.Subdomain, &item.CustomDomain, &item.PrimaryPhoto,
		&item.TemplateID, &item.DeploymentStatus, &item.SiteURL, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Case{}, ErrNotFound
	}
	if err != nil {
		return Case{}, fmt.Errorf("scan case: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) CreateCase(ctx context.Context, item Case) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cases (id, owner_id, first_name, last_name, case_type, status, summary,
			subdomain, custom_domain, primary_photo, template_id, deployment_status, site_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, item.ID, item.OwnerID, item.FirstName, item.LastName, item.CaseType, item.Status,
		item.Summary, item.Subdomain, item.CustomDomain, item.PrimaryPhoto, item.TemplateID,
		item.DeploymentStatus, item.SiteURL)
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCase(ctx context.Context, caseID string) (Case, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id=$1`, caseID)
	return scanCase(row.Scan)
}

func (s *PostgresStore) UpdateCase(ctx context.Context, item Case) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE cases
		SET first_name=$2, last_name=$3, case_type=$4, status=$5, summary=$6,
			subdomain=$7, custom_domain=$8, primary_photo=$9, template_id=$10, updated_at=NOW()
		WHERE id=$1
	`, item.ID, item.FirstName, item.LastName, item.CaseType, item.Status, item.Summary,
		item.Subdomain, item.CustomDomain, item.PrimaryPhoto, item.TemplateID)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateCaseDeployment(ctx context.Context, caseID, deploymentStatus, siteURL string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE cases SET deployment_status=$2, site_url=$3, updated_at=NOW() WHERE id=$1
	`, caseID, deploymentStatus, siteURL)
	if err != nil {
		return fmt.Errorf("update case deployment: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteCase(ctx context.Context, caseID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM cases WHERE id=$1`, caseID)
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCasesForUser returns cases the user owns plus cases shared with them
// through case_access.
func (s *PostgresStore) ListCasesForUser(ctx context.Context, userID string) ([]Case, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT `+caseColumns+`
		FROM cases
		WHERE owner_id=$1
			OR id IN (SELECT case_id FROM case_access WHERE user_id=$1)
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	return collectCases(rows)
}

func (s *PostgresStore) ListAllCases(ctx context.Context) ([]Case, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+caseColumns+` FROM cases ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all cases: %w", err)
	}
	return collectCases(rows)
}

func collectCases(rows *sql.Rows) ([]Case, error) {
	defer rows.Close()
	items := make([]Case, 0)
	for rows.Next() {
		item, err := scanCase(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return items, nil
}

// SubdomainTaken reports whether another case already holds the subdomain.
func (s *PostgresStore) SubdomainTaken(ctx context.Context, subdomain, excludeCaseID string) (bool, error) {
	var taken bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM cases WHERE subdomain=$1 AND id <> $2)
	`, subdomain, excludeCaseID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check subdomain: %w", err)
	}
	return taken, nil
}

// --- customization documents ---

func (s *PostgresStore) SaveCaseDocument(ctx context.Context, caseID, document, updatedBy string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO case_documents (case_id, document, updated_by, updated_at)
		VALUES ($1, $2::jsonb, $3, NOW())
		ON CONFLICT (case_id) DO UPDATE SET document=EXCLUDED.document, updated_by=EXCLUDED.updated_by, updated_at=NOW()
	`, caseID, document, updatedBy)
	if err != nil {
		return fmt.Errorf("save case document: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCaseDocument(ctx context.Context, caseID string) (CaseDocument, error) {
	var doc CaseDocument
	err := s.db.QueryRowContext(ctx, `
		SELECT case_id, document, updated_by, updated_at FROM case_documents WHERE case_id=$1
	`, caseID).Scan(&doc.CaseID, &doc.Document, &doc.UpdatedBy, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CaseDocument{}, ErrNotFound
	}
	if err != nil {
		return CaseDocument{}, fmt.Errorf("get case document: %w", err)
	}
	return doc, nil
}

// --- messages and tips ---

func (s *PostgresStore) CreateMessage(ctx context.Context, msg Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, case_id, kind, sender_name, sender_email, subject, body)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, msg.ID, msg.CaseID, msg.Kind, msg.SenderName, msg.SenderEmail, msg.Subject, msg.Body)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListMessages(ctx context.Context, caseID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, kind, sender_name, sender_email, subject, body, is_read, created_at
		FROM messages
		WHERE case_id=$1
		ORDER BY created_at DESC
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	items := make([]Message, 0)
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.CaseID, &msg.Kind, &msg.SenderName, &msg.SenderEmail,
			&msg.Subject, &msg.Body, &msg.IsRead, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) MarkMessageRead(ctx context.Context, messageID string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE messages SET is_read=TRUE WHERE id=$1`, messageID)
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- spotlight posts ---

const postColumns = `id, case_id, author_id,
	(SELECT display_name FROM users WHERE users.id = spotlight_posts.author_id),
	title, body, photo_url, created_at, updated_at`

func scanPost(scan func(dest ...any) error) (SpotlightPost, error) {
	var post SpotlightPost
	err := scan(&post.ID, &post.CaseID, &post.AuthorID, &post.AuthorName,
		&post.Title, &post.Body, &post.PhotoURL, &post.CreatedAt, &post.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SpotlightPost{}, ErrNotFound
	}
	if err != nil {
		return SpotlightPost{}, fmt.Errorf("scan post: %w", err)
	}
	return post, nil
}

func (s *PostgresStore) CreatePost(ctx context.Context, post SpotlightPost) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO spotlight_posts (id, case_id, author_id, title, body, photo_url)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, post.ID, post.CaseID, post.AuthorID, post.Title, post.Body, post.PhotoURL)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPost(ctx context.Context, postID string) (SpotlightPost, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM spotlight_posts WHERE id=$1`, postID)
	return scanPost(row.Scan)
}

func (s *PostgresStore) ListPosts(ctx context.Context, caseID string) ([]SpotlightPost, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+` FROM spotlight_posts WHERE case_id=$1 ORDER BY created_at DESC
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	items := make([]SpotlightPost, 0)
	for rows.Next() {
		post, err := scanPost(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpdatePost(ctx context.Context, post SpotlightPost) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE spotlight_posts SET title=$2, body=$3, photo_url=$4, updated_at=NOW() WHERE id=$1
	`, post.ID, post.Title, post.Body, post.PhotoURL)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeletePost(ctx context.Context, postID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM spotlight_posts WHERE id=$1`, postID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- access requests and per-case roles ---

func (s *PostgresStore) CreateAccessRequest(ctx context.Context, req AccessRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO access_requests (id, case_id, requester_id, requested_role, note)
		VALUES ($1, $2, $3, $4, $5)
	`, req.ID, req.CaseID, req.RequesterID, req.RequestedRole, req.Note)
	if err != nil {
		return fmt.Errorf("insert access request: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAccessRequest(ctx context.Context, requestID string) (AccessRequest, error) {
	var req AccessRequest
	err := s.db.QueryRowContext(ctx, `
		SELECT ar.id, ar.case_id, ar.requester_id, u.display_name, u.email,
			ar.requested_role, ar.note, ar.status, ar.decided_by, ar.decided_at, ar.created_at
		FROM access_requests ar
		JOIN users u ON u.id = ar.requester_id
		WHERE ar.id=$1
	`, requestID).Scan(&req.ID, &req.CaseID, &req.RequesterID, &req.RequesterName, &req.RequesterEmail,
		&req.RequestedRole, &req.Note, &req.Status, &req.DecidedBy, &req.DecidedAt, &req.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return AccessRequest{}, ErrNotFound
	}
	if err != nil {
		return AccessRequest{}, fmt.Errorf("get access request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) ListAccessRequests(ctx context.Context, caseID string) ([]AccessRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ar.id, ar.case_id, ar.requester_id, u.display_name, u.email,
			ar.requested_role, ar.note, ar.status, ar.decided_by, ar.decided_at, ar.created_at
		FROM access_requests ar
		JOIN users u ON u.id = ar.requester_id
		WHERE ar.case_id=$1
		ORDER BY ar.created_at DESC
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list access requests: %w", err)
	}
	defer rows.Close()

	items := make([]AccessRequest, 0)
	for rows.Next() {
		var req AccessRequest
		if err := rows.Scan(&req.ID, &req.CaseID, &req.RequesterID, &req.RequesterName, &req.RequesterEmail,
			&req.RequestedRole, &req.Note, &req.Status, &req.DecidedBy, &req.DecidedAt, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan access request: %w", err)
		}
		items = append(items, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access requests: %w", err)
	}
	return items, nil
}

// DecideAccessRequest records the decision and, on approval, grants the role
// in the same transaction.
func (s *PostgresStore) DecideAccessRequest(ctx context.Context, requestID, deciderID, status string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin decide tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var caseID, requesterID, role string
	err = tx.QueryRowContext(ctx, `
		UPDATE access_requests SET status=$2, decided_by=$3, decided_at=NOW()
		WHERE id=$1 AND status='pending'
		RETURNING case_id, requester_id, requested_role
	`, requestID, status, deciderID).Scan(&caseID, &requesterID, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("decide access request: %w", err)
	}

	if status == "approved" {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO case_access (case_id, user_id, role, granted_by)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (case_id, user_id) DO UPDATE SET role=EXCLUDED.role, granted_by=EXCLUDED.granted_by, granted_at=NOW()
		`, caseID, requesterID, role, deciderID); err != nil {
			return fmt.Errorf("grant case access: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit decide tx: %w", err)
	}
	return nil
}

// CaseRoleFor returns the user's granted role on a case, or "" when none.
func (s *PostgresStore) CaseRoleFor(ctx context.Context, caseID, userID string) (string, error) {
	var role string
	err := s.db.QueryRowContext(ctx, `
		SELECT role FROM case_access WHERE case_id=$1 AND user_id=$2
	`, caseID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read case role: %w", err)
	}
	return role, nil
}

// --- deployments ---

func (s *PostgresStore) CreateDeployment(ctx context.Context, dep Deployment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deployments (id, case_id, subdomain, status, deployed_by)
		VALUES ($1, $2, $3, $4, $5)
	`, dep.ID, dep.CaseID, dep.Subdomain, dep.Status, dep.DeployedBy)
	if err != nil {
		return fmt.Errorf("insert deployment: %w", err)
	}
	return nil
}

func (s *PostgresStore) CompleteDeployment(ctx context.Context, deploymentID, status, url, errMessage string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE deployments SET status=$2, url=$3, error=$4, completed_at=NOW() WHERE id=$1
	`, deploymentID, status, url, errMessage)
	if err != nil {
		return fmt.Errorf("complete deployment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListDeployments(ctx context.Context, caseID string) ([]Deployment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, subdomain, status, url, error, deployed_by, created_at, completed_at
		FROM deployments
		WHERE case_id=$1
		ORDER BY created_at DESC
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list deployments: %w", err)
	}
	defer rows.Close()

	items := make([]Deployment, 0)
	for rows.Next() {
		var dep Deployment
		if err := rows.Scan(&dep.ID, &dep.CaseID, &dep.Subdomain, &dep.Status, &dep.URL,
			&dep.Error, &dep.DeployedBy, &dep.CreatedAt, &dep.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan deployment: %w", err)
		}
		items = append(items, dep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deployments: %w", err)
	}
	return items, nil
}
