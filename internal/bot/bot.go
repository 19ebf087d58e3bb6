package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Client is a thin Telegram Bot API client. It covers exactly what the
// service needs: messages, photos, single-use channel invites and member
// removal.
type Client struct {
	token  string
	httpc  *http.Client
	apiURL string
}

func NewClient(token string) *Client {
	return &Client{
		token:  token,
		apiURL: "https://api.telegram.org/bot" + token,
		httpc:  &http.Client{Timeout: 10 * time.Second},
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

func (c *Client) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/"+method, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("telegram %s: %w", method, err)
	}
	if !out.OK {
		return nil, fmt.Errorf("telegram %s: %s", method, out.Description)
	}
	return out.Result, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, replyMarkup any) error {
	data := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if replyMarkup != nil {
		data["reply_markup"] = replyMarkup
	}
	_, err := c.call(ctx, "sendMessage", data)
	return err
}

func (c *Client) SendPhoto(ctx context.Context, chatID int64, photo, caption string, replyMarkup any) error {
	data := map[string]any{
		"chat_id": chatID,
		"photo":   photo, // URL or file_id
	}
	if caption != "" {
		data["caption"] = caption
	}
	if replyMarkup != nil {
		data["reply_markup"] = replyMarkup
	}
	_, err := c.call(ctx, "sendPhoto", data)
	return err
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	_, err := c.call(ctx, "answerCallbackQuery", map[string]any{"callback_query_id": callbackID})
	return err
}

// CreateInviteLink issues a time-limited invite link for the channel.
// memberLimit=1 makes it single-use.
func (c *Client) CreateInviteLink(ctx context.Context, chatID int64, name string, expireAt time.Time, memberLimit int) (string, error) {
	res, err := c.call(ctx, "createChatInviteLink", map[string]any{
		"chat_id":      chatID,
		"name":         name,
		"expire_date":  expireAt.Unix(),
		"member_limit": memberLimit,
	})
	if err != nil {
		return "", err
	}
	var link struct {
		InviteLink string `json:"invite_link"`
	}
	if err := json.Unmarshal(res, &link); err != nil {
		return "", err
	}
	return link.InviteLink, nil
}

// RemoveMember kicks a user out of the channel without a permanent ban:
// ban, then unban. The unban is attempted even when the ban fails, so a user
// banned by a previous partial attempt still gets cleaned up.
func (c *Client) RemoveMember(ctx context.Context, chatID, userID int64) error {
	_, banErr := c.call(ctx, "banChatMember", map[string]any{
		"chat_id": chatID,
		"user_id": userID,
	})
	_, unbanErr := c.call(ctx, "unbanChatMember", map[string]any{
		"chat_id":        chatID,
		"user_id":        userID,
		"only_if_banned": true,
	})
	return errors.Join(banErr, unbanErr)
}
