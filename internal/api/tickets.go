package api

import (
	"context"
	"net/http"

	"blocknotes/internal/domain"
)

func (c *Client) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	if err := c.do(ctx, http.MethodGet, "/api/tickets", nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (c *Client) CreateTicket(ctx context.Context, subject, message string) (domain.Ticket, error) {
	var t domain.Ticket
	in := map[string]string{"subject": subject, "message": message}
	err := c.do(ctx, http.MethodPost, "/api/tickets", in, &t)
	return t, err
}
