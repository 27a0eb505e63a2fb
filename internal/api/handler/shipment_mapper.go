package handler

import (
	"github.com/99minutos/shipment-lifecycle/internal/core/domain"
	"github.com/99minutos/shipment-lifecycle/internal/core/ports"
)

// --- Request → Service input ---

func toCreateInput(req createShipmentRequest, clientID, idempotencyKey string) ports.CreateShipmentInput {
	return ports.CreateShipmentInput{
		ClientID:        clientID,
		Sender:          toAddressInput(req.Sender),
		Receiver:        toAddressInput(req.Receiver),
		Package:         toPackageInput(req.Package),
		ServiceCode:     req.ServiceCode,
		ReferenceNumber: req.ReferenceNumber,
		IdempotencyKey:  idempotencyKey,
	}
}

func toAddressInput(a addressRequest) ports.AddressInput {
	return ports.AddressInput{
		Name:       a.Name,
		Company:    a.Company,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
		Email:      a.Email,
	}
}

func toPackageInput(p packageRequest) ports.PackageInput {
	return ports.PackageInput{
		WeightKg:    p.WeightKg,
		LengthCm:    p.LengthCm,
		WidthCm:     p.WidthCm,
		HeightCm:    p.HeightCm,
		Description: p.Description,
	}
}

// --- Service result → HTTP response ---

func toShipmentResponse(s *domain.Shipment) shipmentResponse {
	links := shipmentLinks{Self: "/v1/shipments/" + s.ID}
	if s.TrackingNumber != "" {
		links.Track = "/v1/track/" + s.TrackingNumber
	}
	return shipmentResponse{
		ID:              s.ID,
		TrackingNumber:  s.TrackingNumber,
		ReferenceNumber: s.ReferenceNumber,
		Status:          string(s.Status),
		Service: serviceResponse{
			Code:      s.Service.Code,
			Name:      s.Service.Name,
			BaseRate:  s.Service.BaseRate,
			RatePerKg: s.Service.RatePerKg,
		},
		QuotedCost: s.QuotedCost,
		EstimatedDelivery: deliveryWindowResponse{
			Min: s.EstimatedDelivery.Min.UTC(),
			Max: s.EstimatedDelivery.Max.UTC(),
		},
		Sender:    toAddressResponse(s.Sender),
		Receiver:  toAddressResponse(s.Receiver),
		Package:   toPackageResponse(s.Package),
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
		Links:     links,
	}
}

func toAddressResponse(a domain.Address) addressResponse {
	return addressResponse{
		Name:       a.Name,
		Company:    a.Company,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
		Email:      a.Email,
	}
}

func toPackageResponse(p domain.Package) packageResponse {
	return packageResponse{
		WeightKg:    p.WeightKg,
		LengthCm:    p.LengthCm,
		WidthCm:     p.WidthCm,
		HeightCm:    p.HeightCm,
		Description: p.Description,
	}
}

func toTrackingResponse(v *ports.TrackingView) trackingResponse {
	history := make([]trackingHistoryResponse, len(v.History))
	for i, item := range v.History {
		history[i] = trackingHistoryResponse{
			Status:      item.Status,
			Description: item.Description,
			Location:    item.Location,
			Timestamp:   item.Timestamp.UTC(),
		}
	}
	return trackingResponse{
		TrackingNumber:        v.TrackingNumber,
		CurrentStatus:         v.CurrentStatus,
		LastUpdate:            v.LastUpdate.UTC(),
		ReferenceNumber:       v.ReferenceNumber,
		EstimatedDeliveryDate: v.EstimatedDeliveryDate.UTC(),
		History:               history,
	}
}
