package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"csvtogithub/config"
	"csvtogithub/models"
	"csvtogithub/utils"
)

// DefaultEndpoint はGitHub GraphQL APIのエンドポイントです
const DefaultEndpoint = "https://api.github.com/graphql"

var (
	// ErrAuth は認証情報が拒否されたことを表すエラーです
	ErrAuth = errors.New("認証エラー")
	// ErrRemote はAPI側の失敗を表すエラーです
	ErrRemote = errors.New("APIエラー")
)

// GitHubClient はGitHub GraphQL APIとのやり取りを処理します
type GitHubClient struct {
	config   *config.Config
	client   *http.Client
	Endpoint string
}

// NewGitHubClient は新しいGitHubクライアントを作成します
func NewGitHubClient(cfg *config.Config) *GitHubClient {
	return &GitHubClient{
		config:   cfg,
		client:   &http.Client{Timeout: 60 * time.Second},
		Endpoint: DefaultEndpoint,
	}
}

// graphQLError はGraphQLレスポンスのエラー要素を表します
type graphQLError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// execute はGraphQLクエリを実行してdata部分を返します
func (g *GitHubClient) execute(query string, variables map[string]interface{}) (json.RawMessage, error) {
	payload := map[string]interface{}{
		"query":     query,
		"variables": variables,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("JSONエンコードエラー: %w", err)
	}

	req, err := http.NewRequest("POST", g.Endpoint, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成エラー: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+g.config.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")
	// Projects v2のミューテーション (addProjectV2DraftIssueなど) に必要
	req.Header.Set("GraphQL-Features", "projects_next_graphql")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("リクエスト送信エラー: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrAuth, resp.StatusCode, string(body))
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrRemote, resp.StatusCode, string(body))
	}

	var result struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("レスポンス解析エラー: %w", err)
	}

	if len(result.Errors) > 0 {
		messages := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			messages = append(messages, e.Message)
		}
		return nil, fmt.Errorf("%w: %s", ErrRemote, strings.Join(messages, "; "))
	}

	return result.Data, nil
}

// CheckAuth はGitHub認証をチェックし、ログイン名を返します
func (g *GitHubClient) CheckAuth() (string, error) {
	query := `query { viewer { login } }`

	data, err := g.execute(query, nil)
	if err != nil {
		return "", err
	}

	var resp struct {
		Viewer struct {
			Login string `json:"login"`
		} `json:"viewer"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("レスポンス解析エラー: %w", err)
	}

	return resp.Viewer.Login, nil
}

// projectPayload はprojectV2クエリの共通レスポンス形式です
type projectPayload struct {
	ID     string `json:"id"`
	Fields struct {
		Nodes []struct {
			Typename string `json:"__typename"`
			ID       string `json:"id"`
			Name     string `json:"name"`
			DataType string `json:"dataType"`
			Options  []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"options"`
		} `json:"nodes"`
	} `json:"fields"`
}

const projectFieldsFragment = `
	id
	fields(first: 100) {
		nodes {
			__typename
			... on ProjectV2FieldCommon { id name dataType }
			... on ProjectV2SingleSelectField { id name dataType options { id name } }
			... on ProjectV2IterationField { id name dataType }
		}
	}`

// GetProject はProject (v2) のIDとフィールド定義を取得します
// オーナーはユーザーとして検索し、見つからなければorganizationとして検索します
func (g *GitHubClient) GetProject(owner string, number int) (*models.Project, error) {
	queryUser := `query($owner:String!, $number:Int!) {
		user(login:$owner) { projectV2(number:$number) {` + projectFieldsFragment + ` } }
	}`
	queryOrg := `query($owner:String!, $number:Int!) {
		organization(login:$owner) { projectV2(number:$number) {` + projectFieldsFragment + ` } }
	}`

	variables := map[string]interface{}{"owner": owner, "number": number}

	// 1) ユーザーのProjectとして検索
	var proj *projectPayload
	data, err := g.execute(queryUser, variables)
	if err == nil {
		var resp struct {
			User struct {
				ProjectV2 *projectPayload `json:"projectV2"`
			} `json:"user"`
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("レスポンス解析エラー: %w", err)
		}
		proj = resp.User.ProjectV2
	} else if errors.Is(err, ErrAuth) {
		return nil, err
	}

	where := "user"

	// 2) 見つからなければorganizationのProjectとして検索
	if proj == nil {
		data, err := g.execute(queryOrg, variables)
		if err != nil {
			return nil, err
		}
		var resp struct {
			Organization struct {
				ProjectV2 *projectPayload `json:"projectV2"`
			} `json:"organization"`
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("レスポンス解析エラー: %w", err)
		}
		proj = resp.Organization.ProjectV2
		where = "organization"
	}

	if proj == nil {
		return nil, fmt.Errorf("%w: '%s' のProject #%d が見つかりません（userとしてもorganizationとしても）", ErrRemote, owner, number)
	}

	utils.LogInfo("Projectが見つかりました: %s の %s として", owner, where)

	// フィールドを名前で引けるように正規化する
	fields := make(map[string]models.ProjectField)
	for _, node := range proj.Fields.Nodes {
		if node.Name == "" {
			continue
		}
		field := models.ProjectField{
			ID:       node.ID,
			Name:     node.Name,
			DataType: node.DataType,
		}
		if node.Typename == "ProjectV2SingleSelectField" {
			for _, opt := range node.Options {
				field.Options = append(field.Options, models.FieldOption{ID: opt.ID, Name: opt.Name})
			}
		}
		fields[field.Name] = field
	}

	return &models.Project{ID: proj.ID, Fields: fields}, nil
}

// GetRepositoryID はリポジトリ (owner/name 形式) のノードIDを取得します
func (g *GitHubClient) GetRepositoryID(repoFull string) (string, error) {
	owner, name, ok := strings.Cut(repoFull, "/")
	if !ok {
		return "", fmt.Errorf("リポジトリは owner/name 形式で指定してください: %s", repoFull)
	}

	query := `query($owner:String!, $name:String!) {
		repository(owner:$owner, name:$name){ id }
	}`

	data, err := g.execute(query, map[string]interface{}{"owner": owner, "name": name})
	if err != nil {
		return "", err
	}

	var resp struct {
		Repository *struct {
			ID string `json:"id"`
		} `json:"repository"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("レスポンス解析エラー: %w", err)
	}

	if resp.Repository == nil {
		return "", fmt.Errorf("%w: リポジトリ %s が存在しないかアクセスできません", ErrRemote, repoFull)
	}

	return resp.Repository.ID, nil
}

// GetLabelIDs はラベル名のリストをリポジトリのラベルIDに解決します
// 存在しないラベルは警告を出してスキップします
func (g *GitHubClient) GetLabelIDs(repoFull string, labelNames []string) ([]string, error) {
	if len(labelNames) == 0 {
		return nil, nil
	}

	owner, name, _ := strings.Cut(repoFull, "/")

	query := `query($owner:String!, $name:String!, $query:String!) {
		repository(owner:$owner, name:$name){
			labels(first:100, query:$query){ nodes { id name } }
		}
	}`

	var ids []string
	var missing []string

	for _, labelName := range labelNames {
		labelName = strings.TrimSpace(labelName)
		if labelName == "" {
			continue
		}

		data, err := g.execute(query, map[string]interface{}{"owner": owner, "name": name, "query": labelName})
		if err != nil {
			return nil, err
		}

		var resp struct {
			Repository struct {
				Labels struct {
					Nodes []struct {
						ID   string `json:"id"`
						Name string `json:"name"`
					} `json:"nodes"`
				} `json:"labels"`
			} `json:"repository"`
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("レスポンス解析エラー: %w", err)
		}

		found := false
		for _, node := range resp.Repository.Labels.Nodes {
			if strings.EqualFold(node.Name, labelName) {
				ids = append(ids, node.ID)
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, labelName)
		}
	}

	if len(missing) > 0 {
		utils.LogWarn("リポジトリに存在しないラベル: %s", strings.Join(missing, ", "))
	}

	return ids, nil
}

// GetUserIDs はログイン名のリストをユーザーのノードIDに解決します
// 存在しないユーザーは警告を出してスキップします
func (g *GitHubClient) GetUserIDs(logins []string) ([]string, error) {
	if len(logins) == 0 {
		return nil, nil
	}

	query := `query($login:String!){ user(login:$login){ id login } }`

	var ids []string
	seen := make(map[string]bool)

	for _, login := range logins {
		login = strings.TrimSpace(login)
		if login == "" || seen[login] {
			continue
		}
		seen[login] = true

		data, err := g.execute(query, map[string]interface{}{"login": login})
		if err != nil {
			// 存在しないログイン名はGraphQLエラーとして返るため警告に留める
			if errors.Is(err, ErrRemote) {
				utils.LogWarn("ユーザーが見つかりません: %s", login)
				continue
			}
			return nil, err
		}

		var resp struct {
			User *struct {
				ID string `json:"id"`
			} `json:"user"`
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("レスポンス解析エラー: %w", err)
		}

		if resp.User == nil {
			utils.LogWarn("ユーザーが見つかりません: %s", login)
			continue
		}
		ids = append(ids, resp.User.ID)
	}

	return ids, nil
}

// CreateIssue はリポジトリにイシューを作成します
func (g *GitHubClient) CreateIssue(repoID, title, body string, labelIDs, assigneeIDs []string) (*models.Issue, error) {
	mutation := `mutation($input:CreateIssueInput!){
		createIssue(input:$input){
			issue { id number url }
		}
	}`

	input := map[string]interface{}{
		"repositoryId": repoID,
		"title":        title,
		"body":         body,
	}
	if len(labelIDs) > 0 {
		input["labelIds"] = labelIDs
	}
	if len(assigneeIDs) > 0 {
		input["assigneeIds"] = assigneeIDs
	}

	data, err := g.execute(mutation, map[string]interface{}{"input": input})
	if err != nil {
		return nil, err
	}

	var resp struct {
		CreateIssue struct {
			Issue models.Issue `json:"issue"`
		} `json:"createIssue"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("レスポンス解析エラー: %w", err)
	}

	if resp.CreateIssue.Issue.ID == "" {
		return nil, fmt.Errorf("%w: イシューIDが返されませんでした", ErrRemote)
	}

	return &resp.CreateIssue.Issue, nil
}

// AddDraftIssue はProjectにDraft Issueを直接作成し、アイテムIDを返します
func (g *GitHubClient) AddDraftIssue(projectID, title, body string, assigneeIDs []string) (string, error) {
	mutation := `mutation($input:AddProjectV2DraftIssueInput!){
		addProjectV2DraftIssue(input:$input){
			projectItem { id }
		}
	}`

	input := map[string]interface{}{
		"projectId": projectID,
		"title":     title,
		"body":      body,
	}
	if len(assigneeIDs) > 0 {
		input["assigneeIds"] = assigneeIDs
	}

	data, err := g.execute(mutation, map[string]interface{}{"input": input})
	if err != nil {
		return "", err
	}

	var resp struct {
		AddProjectV2DraftIssue struct {
			ProjectItem struct {
				ID string `json:"id"`
			} `json:"projectItem"`
		} `json:"addProjectV2DraftIssue"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("レスポンス解析エラー: %w", err)
	}

	if resp.AddProjectV2DraftIssue.ProjectItem.ID == "" {
		return "", fmt.Errorf("%w: アイテムIDが返されませんでした", ErrRemote)
	}

	return resp.AddProjectV2DraftIssue.ProjectItem.ID, nil
}

// AddItemToProject は作成済みのイシューをProjectのアイテムとして追加します
func (g *GitHubClient) AddItemToProject(projectID, contentID string) (string, error) {
	mutation := `mutation($projectId:ID!, $contentId:ID!){
		addProjectV2ItemById(input:{projectId:$projectId, contentId:$contentId}){
			item { id }
		}
	}`

	data, err := g.execute(mutation, map[string]interface{}{"projectId": projectID, "contentId": contentID})
	if err != nil {
		return "", err
	}

	var resp struct {
		AddProjectV2ItemByID struct {
			Item struct {
				ID string `json:"id"`
			} `json:"item"`
		} `json:"addProjectV2ItemById"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("レスポンス解析エラー: %w", err)
	}

	if resp.AddProjectV2ItemByID.Item.ID == "" {
		return "", fmt.Errorf("%w: アイテムIDが返されませんでした", ErrRemote)
	}

	return resp.AddProjectV2ItemByID.Item.ID, nil
}

// UpdateFieldValue はProjectアイテムのフィールド値を更新します
// 対応していない型や不正な値は警告を出してスキップします
func (g *GitHubClient) UpdateFieldValue(projectID, itemID string, field models.ProjectField, value string) error {
	var fieldValue map[string]interface{}

	switch field.DataType {
	case "TEXT":
		fieldValue = map[string]interface{}{"text": value}
	case "NUMBER":
		num, err := strconv.ParseFloat(value, 64)
		if err != nil {
			utils.LogWarn("数値フィールド '%s' をスキップします（不正な値）: %s", field.Name, value)
			return nil
		}
		fieldValue = map[string]interface{}{"number": num}
	case "DATE":
		// GitHubは YYYY-MM-DD 形式を期待する
		fieldValue = map[string]interface{}{"date": value}
	case "SINGLE_SELECT":
		var optionID string
		for _, opt := range field.Options {
			if strings.EqualFold(opt.Name, value) {
				optionID = opt.ID
				break
			}
		}
		if optionID == "" {
			utils.LogWarn("シングルセレクトフィールド '%s' に選択肢 '%s' がありません。スキップします", field.Name, value)
			return nil
		}
		fieldValue = map[string]interface{}{"singleSelectOptionId": optionID}
	default:
		utils.LogWarn("未対応のフィールド型です: %s (%s)。スキップします", field.DataType, field.Name)
		return nil
	}

	mutation := `mutation($input:UpdateProjectV2ItemFieldValueInput!){
		updateProjectV2ItemFieldValue(input:$input){ projectV2Item { id } }
	}`

	_, err := g.execute(mutation, map[string]interface{}{"input": map[string]interface{}{
		"projectId": projectID,
		"itemId":    itemID,
		"fieldId":   field.ID,
		"value":     fieldValue,
	}})
	return err
}
