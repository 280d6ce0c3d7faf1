package mysql

const insertFallbackSQL = `
INSERT INTO fallback_searches
  (session_id, cause, status, room_type, results)
VALUES
  (?, ?, ?, ?, ?)
`

// booking_id is unique; failed attempts carry NULL and never collide.
const upsertBookingSQL = `
INSERT INTO booking_attempts
  (session_id, booking_id, hotel_id, hotel_name, room_type, check_in, check_out, rooms, guests, final_price, success, message)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  final_price = VALUES(final_price),
  success     = VALUES(success),
  message     = COALESCE(VALUES(message), booking_attempts.message)
`

const recentFallbacksSQL = `
SELECT session_id, cause, status, room_type, results
FROM fallback_searches
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const fallbackCountsSQL = `
SELECT cause, COUNT(*)
FROM fallback_searches
WHERE created_at >= ?
GROUP BY cause
`

const bookingByIDSQL = `
SELECT session_id, booking_id, hotel_id, hotel_name, room_type, check_in, check_out, rooms, guests, final_price, success, COALESCE(message, '')
FROM booking_attempts
WHERE booking_id = ?
`
